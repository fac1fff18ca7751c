package types

// Criteria maps field names to match values for Query.Where. A plain value
// matches by equality (nil matches NULL); a Cmp value applies relational
// operators, all of which must hold.
type Criteria map[string]any

// Op is a comparison operator key inside a Cmp.
type Op string

// Comparison operators.
const (
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpNe  Op = "ne"
)

// Operators lists the operators in the order they are rendered.
var Operators = []Op{OpGt, OpGte, OpLt, OpLte, OpNe}

var operatorSQL = map[Op]string{
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
	OpNe:  "!=",
}

// SQL returns the relational operator for o.
func (o Op) SQL() (string, bool) {
	s, ok := operatorSQL[o]
	return s, ok
}

// Cmp holds relational constraints on one field, ANDed together.
type Cmp map[Op]any

// Gt matches values greater than v.
func Gt(v any) Cmp { return Cmp{OpGt: v} }

// Gte matches values greater than or equal to v.
func Gte(v any) Cmp { return Cmp{OpGte: v} }

// Lt matches values less than v.
func Lt(v any) Cmp { return Cmp{OpLt: v} }

// Lte matches values less than or equal to v.
func Lte(v any) Cmp { return Cmp{OpLte: v} }

// Ne matches values different from v.
func Ne(v any) Cmp { return Cmp{OpNe: v} }

// Between matches values in the open interval (lo, hi).
func Between(lo, hi any) Cmp { return Cmp{OpGt: lo, OpLt: hi} }

// And merges the operators of other into a copy of c.
func (c Cmp) And(other Cmp) Cmp {
	out := make(Cmp, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
