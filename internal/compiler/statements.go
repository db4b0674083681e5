package compiler

// StmtKind is the kind of a direct child of an exception block.
type StmtKind int

// Exception block statement kinds.
const (
	StmtTry StmtKind = iota + 1
	StmtExcept
	StmtElse
	StmtFinally
	StmtRaise
	StmtFunc
	StmtClass
	StmtCalc
)

var stmtNames = map[StmtKind]string{
	StmtTry:     "try",
	StmtExcept:  "except",
	StmtElse:    "else",
	StmtFinally: "finally",
	StmtRaise:   "raise",
	StmtFunc:    "func",
	StmtClass:   "class",
	StmtCalc:    "calc",
}

// stmtOrder is the vocabulary listed in error messages.
var stmtOrder = []StmtKind{StmtTry, StmtExcept, StmtElse, StmtFinally, StmtRaise, StmtFunc, StmtClass, StmtCalc}

func (k StmtKind) String() string {
	if s, ok := stmtNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseStmtKind maps an exception child key to its statement kind.
func ParseStmtKind(key string) (StmtKind, bool) {
	for _, k := range stmtOrder {
		if stmtNames[k] == key {
			return k, true
		}
	}
	return 0, false
}

func stmtKeys() []string {
	out := make([]string, len(stmtOrder))
	for i, k := range stmtOrder {
		out[i] = k.String()
	}
	return out
}

// comparison maps a conditional keyword to its operator.
type comparison struct {
	Key string
	Op  string
}

// comparisons is checked in order; the first keyword present on a node wins.
var comparisons = []comparison{
	{Key: "not_equal", Op: "!="},
	{Key: "equal", Op: "=="},
	{Key: "greater_than", Op: ">"},
	{Key: "less_than", Op: "<"},
	{Key: "greater_than_or_equal", Op: ">="},
	{Key: "less_than_or_equal", Op: "<="},
	{Key: "is", Op: "is"},
	{Key: "is_not", Op: "is not"},
	{Key: "in", Op: "in"},
	{Key: "not_in", Op: "not in"},
}

func comparisonKeys() []string {
	out := make([]string, len(comparisons))
	for i, c := range comparisons {
		out[i] = c.Key
	}
	return out
}
