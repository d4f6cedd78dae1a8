package graph

import "github.com/graphql-go/graphql"

// PageArgs declares the optional limit/offset pair of list fields.
func PageArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
		"offset": &graphql.ArgumentConfig{Type: graphql.Int},
	}
}

func IntArg(args map[string]any, name string) int {
	v, _ := args[name].(int)
	return v
}

func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// OptionalString returns nil when the argument was omitted or null.
func OptionalString(args map[string]any, name string) *string {
	v, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &v
}

func FloatArg(args map[string]any, name string) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// InputArg returns the named input-object argument.
func InputArg(args map[string]any, name string) map[string]any {
	v, _ := args[name].(map[string]any)
	return v
}
