package nodefilter

// Operator is the name of a filter operator field
type Operator string

const (
	OpEq           Operator = "eq"
	OpNe           Operator = "ne"
	OpDteq         Operator = "dteq"
	OpGt           Operator = "gt"
	OpGte          Operator = "gte"
	OpLt           Operator = "lt"
	OpLte          Operator = "lte"
	OpBetween      Operator = "between"
	OpRegex        Operator = "regex"
	OpIn           Operator = "in"
	OpNin          Operator = "nin"
	OpContains     Operator = "contains"
	OpContainsAny  Operator = "containsAny"
	OpContainsNone Operator = "containsNone"
	OpSize         Operator = "size"
	OpLen          Operator = "len"
)

var operatorDescriptions = map[Operator]string{
	OpEq:           "Filter nodes by property of (strict) equality.",
	OpNe:           "Filter nodes by property not equal to provided value.",
	OpDteq:         "Filter nodes by date property equal to provided date value",
	OpGt:           "Filter nodes by property greater than provided value.",
	OpGte:          "Filter nodes by property greater or equal to provided value.",
	OpLt:           "Filter nodes by property less than provided value.",
	OpLte:          "Filter nodes by property less than or equal to provided value.",
	OpBetween:      "Filter nodes by property between provided values.",
	OpRegex:        "Filter nodes by property matching provided regular expression.",
	OpIn:           "Filter nodes by property matching any of the provided values.",
	OpNin:          "Filter nodes by property not matching any of the provided values.",
	OpContains:     "Filter nodes by property containing the provided value.",
	OpContainsAny:  "Filter nodes by property containing any of the provided values.",
	OpContainsNone: "Filter nodes by property containing none of the provided values.",
	OpSize:         "Filter nodes which have an array property of specified size.",
	OpLen:          "Filter nodes which have a string property of specified length.",
}

// Description returns the fixed help text shown for the operator field
func (op Operator) Description() string {
	return operatorDescriptions[op]
}

// IsValid reports whether op is a known operator
func (op Operator) IsValid() bool {
	_, ok := operatorDescriptions[op]
	return ok
}
