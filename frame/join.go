package frame

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JoinType represents the type of join operation
type JoinType int

const (
	JoinTypeInner JoinType = iota
	JoinTypeLeft
	JoinTypeRight
	JoinTypeCross
)

func (t JoinType) String() string {
	switch t {
	case JoinTypeInner:
		return "inner"
	case JoinTypeLeft:
		return "left"
	case JoinTypeRight:
		return "right"
	case JoinTypeCross:
		return "cross"
	}
	return "unknown"
}

// JoinSpec represents the specification for a join operation
type JoinSpec struct {
	leftOn   []string
	rightOn  []string
	joinType JoinType
	suffix   string
}

// On creates a JoinSpec for joining on the same column names in both DataFrames
func On(columns ...string) JoinSpec {
	return JoinSpec{leftOn: columns, rightOn: columns, joinType: JoinTypeInner, suffix: "_right"}
}

// LeftOn creates a JoinSpec builder for specifying different left and right columns
func LeftOn(columns ...string) JoinSpecBuilder {
	return JoinSpecBuilder{spec: JoinSpec{leftOn: columns, joinType: JoinTypeInner, suffix: "_right"}}
}

// JoinSpecBuilder allows building complex join specifications
type JoinSpecBuilder struct {
	spec JoinSpec
}

// RightOn specifies the right-side columns for the join
func (b JoinSpecBuilder) RightOn(columns ...string) JoinSpec {
	b.spec.rightOn = columns
	return b.spec
}

// WithType sets the join type
func (spec JoinSpec) WithType(joinType JoinType) JoinSpec {
	spec.joinType = joinType
	return spec
}

// WithSuffix sets the suffix for duplicate column names
func (spec JoinSpec) WithSuffix(suffix string) JoinSpec {
	spec.suffix = suffix
	return spec
}

// Type returns the join type.
func (spec JoinSpec) Type() JoinType { return spec.joinType }

type joinArgs struct {
	other *DataFrame
	spec  JoinSpec
}

// Join performs a join with another, already collected, DataFrame.
// Right-hand key columns named like their left-hand counterpart are dropped;
// other clashing right-hand names get the spec's suffix.
func (df *DataFrame) Join(other *DataFrame, spec JoinSpec) *DataFrame {
	if other == nil {
		return df.appendErrOp("Join: other DataFrame cannot be nil")
	}
	if other.Pending() {
		return df.appendErrOp("Join: other DataFrame must be collected first (call Collect())")
	}
	if spec.joinType != JoinTypeCross {
		if len(spec.leftOn) == 0 || len(spec.rightOn) == 0 {
			return df.appendErrOp("Join: join columns cannot be empty")
		}
		if len(spec.leftOn) != len(spec.rightOn) {
			return df.appendErrOpf("Join: left columns (%d) and right columns (%d) must have same count",
				len(spec.leftOn), len(spec.rightOn))
		}
	}
	return df.with(Operation{opcode: OpJoin, args: joinArgs{other: other, spec: spec}})
}

// InnerJoin performs an inner join on the specified columns
func (df *DataFrame) InnerJoin(other *DataFrame, columns ...string) *DataFrame {
	return df.Join(other, On(columns...).WithType(JoinTypeInner))
}

// LeftJoin performs a left join on the specified columns
func (df *DataFrame) LeftJoin(other *DataFrame, columns ...string) *DataFrame {
	return df.Join(other, On(columns...).WithType(JoinTypeLeft))
}

// RightJoin performs a right join on the specified columns
func (df *DataFrame) RightJoin(other *DataFrame, columns ...string) *DataFrame {
	return df.Join(other, On(columns...).WithType(JoinTypeRight))
}

// CrossJoin performs a cross join (Cartesian product)
func (df *DataFrame) CrossJoin(other *DataFrame) *DataFrame {
	return df.Join(other, JoinSpec{joinType: JoinTypeCross, suffix: "_right"})
}

func keyColumns(df *DataFrame, names []string) ([]*Series, error) {
	keys := make([]*Series, len(names))
	for i, name := range names {
		s, err := df.Column(name)
		if err != nil {
			return nil, &Error{Code: CodeColumnNotFound, Message: err.Error(), cause: err}
		}
		keys[i] = s
	}
	return keys, nil
}

// rowKey encodes the key values of row i. ok is false when any key is null;
// null keys never match.
func rowKey(keys []*Series, i int, b *strings.Builder) (string, bool) {
	b.Reset()
	for _, k := range keys {
		if !k.Data.IsValid(i) {
			return "", false
		}
		s := k.Data.String(i)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String(), true
}

func checkKeyTypes(left, right []*Series) error {
	for i := range left {
		l, r := left[i], right[i]
		if l.DataType() != r.DataType() || l.Timezone != r.Timezone {
			return errors.Errorf("join key %q is %s, %q is %s", l.Name, l.typeLabel(), r.Name, r.typeLabel())
		}
	}
	return nil
}

// matchRows pairs probe rows with build rows. Unmatched probe rows pair
// with -1 when keepUnmatched is set.
func matchRows(build, probe []*Series, buildRows, probeRows int, keepUnmatched bool) (bi, pi []int64) {
	var b strings.Builder
	table := make(map[string][]int64)
	for i := 0; i < buildRows; i++ {
		if k, ok := rowKey(build, i, &b); ok {
			table[k] = append(table[k], int64(i))
		}
	}
	for i := 0; i < probeRows; i++ {
		k, ok := rowKey(probe, i, &b)
		matches := table[k]
		if !ok || len(matches) == 0 {
			if keepUnmatched {
				bi, pi = append(bi, -1), append(pi, int64(i))
			}
			continue
		}
		for _, m := range matches {
			bi, pi = append(bi, m), append(pi, int64(i))
		}
	}
	return bi, pi
}

func join(left, right *DataFrame, spec JoinSpec) (*DataFrame, error) {
	var li, ri []int64
	dropRight := map[string]bool{}
	switch spec.joinType {
	case JoinTypeCross:
		for i := 0; i < left.height; i++ {
			for j := 0; j < right.height; j++ {
				li, ri = append(li, int64(i)), append(ri, int64(j))
			}
		}
	case JoinTypeInner, JoinTypeLeft, JoinTypeRight:
		lk, err := keyColumns(left, spec.leftOn)
		if err != nil {
			return nil, err
		}
		rk, err := keyColumns(right, spec.rightOn)
		if err != nil {
			return nil, err
		}
		if err := checkKeyTypes(lk, rk); err != nil {
			return nil, err
		}
		if spec.joinType == JoinTypeRight {
			li, ri = matchRows(lk, rk, left.height, right.height, true)
		} else {
			ri, li = matchRows(rk, lk, right.height, left.height, spec.joinType == JoinTypeLeft)
		}
		if spec.joinType != JoinTypeRight {
			for i, name := range spec.rightOn {
				if name == spec.leftOn[i] {
					dropRight[name] = true
				}
			}
		}
	default:
		return nil, errors.Errorf("unsupported join type %s", spec.joinType)
	}

	lt, err := take(left, li, true)
	if err != nil {
		return nil, err
	}
	rt, err := take(right, ri, true)
	if err != nil {
		return nil, err
	}
	if spec.joinType == JoinTypeRight {
		// Keys come from the right side so unmatched rows keep them.
		for i, name := range spec.leftOn {
			if name != spec.rightOn[i] {
				continue
			}
			key, _ := rt.Column(name)
			for j, s := range lt.series {
				if s.Name == name {
					lt.series[j] = key
				}
			}
			dropRight[name] = true
		}
	}

	series := append([]*Series(nil), lt.series...)
	taken := make(map[string]bool, len(series))
	for _, s := range series {
		taken[s.Name] = true
	}
	for _, s := range rt.series {
		if dropRight[s.Name] {
			continue
		}
		if taken[s.Name] {
			s = s.renamed(s.Name + spec.suffix)
		}
		taken[s.Name] = true
		series = append(series, s)
	}
	out, err := New(series...)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		out.height = len(li)
	}
	return out, nil
}
