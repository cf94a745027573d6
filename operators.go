package cube2shp

import "strings"

// OtherGroup collects operators not listed in any group.
const OtherGroup = "_other"

type OperatorGroup struct {
	Suffix    string   `yaml:"suffix" validate:"required"`
	Operators []string `yaml:"operators"`
}

var DefaultOperatorGroups = []OperatorGroup{
	{Suffix: "_SF_Muni", Operators: []string{"San Francisco MUNI"}},
	{Suffix: "_SC_VTA", Operators: []string{"Santa Clara VTA"}},
	{Suffix: "_AC_Transit", Operators: []string{"AC Transit", "AC Transbay"}},
	{Suffix: "_SM_SamTrans", Operators: []string{"samTrans"}},
	{Suffix: "_SC_Transit", Operators: []string{"Sonoma County Transit"}},
	{Suffix: "_CC_CountyConnection", Operators: []string{"The County Connection"}},
	{Suffix: "_GG_Transit", Operators: []string{"Golden Gate Transit", "Golden Gate Ferry"}},
	{Suffix: "_WestCAT", Operators: []string{"WestCAT"}},
	{Suffix: "_WHEELS", Operators: []string{"WHEELS"}},
	{Suffix: "_Stanford", Operators: []string{"Stanford Marguerite Shuttle"}},
	{Suffix: "_TriDelta", Operators: []string{"TriDelta Transit"}},
	{Suffix: "_Caltrain", Operators: []string{"Caltrain"}},
	{Suffix: "_BART", Operators: []string{"BART"}},
	{Suffix: "_ferry", Operators: []string{"Alameda Harbor Bay Ferry", "Alameda/Oakland Ferry", "Angel Island - Tiburon Ferry",
		"Oakland/South SSF Ferry", "South SF/Oakland Ferry", "Vallejo Baylink Ferry"}},
	{Suffix: OtherGroup},
}

// Classifier assigns operator texts to output groups. It remembers every
// assignment it makes, so an operator first seen mid-run keeps its group.
type Classifier struct {
	byOperator bool
	groups     []OperatorGroup
	assigned   map[string]string
}

func NewClassifier(groups []OperatorGroup, byOperator bool) *Classifier {
	c := &Classifier{byOperator: byOperator, assigned: make(map[string]string)}
	hasOther := false
	for _, g := range groups {
		c.groups = append(c.groups, OperatorGroup{
			Suffix:    g.Suffix,
			Operators: append([]string(nil), g.Operators...),
		})
		if g.Suffix == OtherGroup {
			hasOther = true
		}
	}
	if !hasOther {
		c.groups = append(c.groups, OperatorGroup{Suffix: OtherGroup})
	}
	for _, g := range c.groups {
		for _, op := range g.Operators {
			if _, ok := c.assigned[op]; !ok {
				c.assigned[op] = g.Suffix
			}
		}
	}
	return c
}

// Groups returns the output suffixes in order. Without operator splitting
// there is a single unnamed group.
func (c *Classifier) Groups() []string {
	if !c.byOperator {
		return []string{""}
	}
	var out []string
	for _, g := range c.groups {
		out = append(out, g.Suffix)
	}
	return out
}

func (c *Classifier) Classify(opText string) string {
	if !c.byOperator {
		return ""
	}
	if suffix, ok := c.assigned[opText]; ok {
		return suffix
	}

	suffix := OtherGroup
	for _, g := range c.groups {
		if g.Suffix == OtherGroup {
			continue
		}
		if containsAny(opText, g.Operators) {
			suffix = g.Suffix
			break
		}
	}

	c.assigned[opText] = suffix
	if suffix == OtherGroup {
		other := c.group(OtherGroup)
		other.Operators = append(other.Operators, opText)
	}
	return suffix
}

// Members lists the operator texts currently routed to suffix.
func (c *Classifier) Members(suffix string) []string {
	if g := c.group(suffix); g != nil {
		return append([]string(nil), g.Operators...)
	}
	return nil
}

func (c *Classifier) group(suffix string) *OperatorGroup {
	for i := range c.groups {
		if c.groups[i].Suffix == suffix {
			return &c.groups[i]
		}
	}
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
