package tags

import "strings"

// Recognized attribute names on a <script> element. The asp-* names are
// directives consumed by the transformer; they never appear in the output.
const (
	SrcAttr                = "src"
	SrcIncludeAttr         = "asp-src-include"
	SrcExcludeAttr         = "asp-src-exclude"
	FallbackSrcAttr        = "asp-fallback-src"
	FallbackSrcIncludeAttr = "asp-fallback-src-include"
	FallbackSrcExcludeAttr = "asp-fallback-src-exclude"
	FallbackTestAttr       = "asp-fallback-test"
	AppendVersionAttr      = "asp-append-version"
)

// Attribute is one bound attribute on an element.
type Attribute struct {
	Name  string
	Value string
}

// AttributeList is an ordered attribute set. Names are unique; order is
// render order. The zero value is an empty list.
type AttributeList []Attribute

// Get returns the value for name and whether it is present.
func (l AttributeList) Get(name string) (string, bool) {
	for _, a := range l {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Has reports whether name is present.
func (l AttributeList) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Set replaces the value for name in place, or appends when absent.
func (l *AttributeList) Set(name, value string) {
	for i, a := range *l {
		if a.Name == name {
			(*l)[i].Value = value
			return
		}
	}
	*l = append(*l, Attribute{Name: name, Value: value})
}

// Clone returns an independent copy of the list.
func (l AttributeList) Clone() AttributeList {
	out := make(AttributeList, len(l))
	copy(out, l)
	return out
}

// isDirective reports whether name is consumed by the transformer rather
// than passed through to the rendered element.
func isDirective(name string) bool {
	switch name {
	case SrcIncludeAttr, SrcExcludeAttr,
		FallbackSrcAttr, FallbackSrcIncludeAttr, FallbackSrcExcludeAttr,
		FallbackTestAttr, AppendVersionAttr:
		return true
	}
	return false
}

// passThrough returns the attributes that render on the output element:
// everything except directives, in original order.
func (l AttributeList) passThrough() AttributeList {
	out := make(AttributeList, 0, len(l))
	for _, a := range l {
		if !isDirective(a.Name) {
			out = append(out, a)
		}
	}
	return out
}

// boolValue interprets an attribute value as a boolean flag. Only the
// literal "true" (any case) enables the flag; anything else is false.
func boolValue(v string) bool {
	return strings.EqualFold(v, "true")
}
