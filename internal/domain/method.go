package domain

import (
	"fmt"
	"strings"
)

// Method is a soil stabilization technique.
type Method string

const (
	MethodMycelium Method = "Mycelium"
	MethodMICP     Method = "MICP"
	MethodHybrid   Method = "Hybrid"
)

// Methods lists every method in tie-break order.
var Methods = []Method{MethodMycelium, MethodHybrid, MethodMICP}

func (m Method) Valid() bool {
	switch m {
	case MethodMycelium, MethodMICP, MethodHybrid:
		return true
	}
	return false
}

func (m Method) Description() string {
	switch m {
	case MethodMycelium:
		return "Fungal mycelium network binds particles into a biocomposite"
	case MethodMICP:
		return "Microbially induced calcite precipitation cements grains together"
	case MethodHybrid:
		return "Mycelium scaffold combined with MICP cementation"
	}
	return ""
}

// ParseMethod resolves a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown method %q", s)
}
