package uda

import "strings"

type ArgDoc struct {
	Name string
	Desc string
}

// Doc describes an aggregate function for help output. Build it with NewDoc and the chained setters.
type Doc struct {
	brief    string
	details  string
	args     []ArgDoc
	returns  string
	examples []string
}

func NewDoc(brief string) *Doc {
	return &Doc{brief: brief}
}

func (d *Doc) Details(details string) *Doc {
	d.details = details
	return d
}

func (d *Doc) Arg(name string, desc string) *Doc {
	d.args = append(d.args, ArgDoc{Name: name, Desc: desc})
	return d
}

func (d *Doc) Returns(desc string) *Doc {
	d.returns = desc
	return d
}

func (d *Doc) Example(example string) *Doc {
	d.examples = append(d.examples, example)
	return d
}

func (d *Doc) Brief() string {
	return d.brief
}

func (d *Doc) Args() []ArgDoc {
	return d.args
}

func (d *Doc) Examples() []string {
	return d.examples
}

func (d *Doc) String() string {
	var sb strings.Builder
	sb.WriteString(d.brief)
	if d.details != "" {
		sb.WriteString("\n\n")
		sb.WriteString(d.details)
	}
	if len(d.args) > 0 {
		sb.WriteString("\n\nArguments:")
		for _, arg := range d.args {
			sb.WriteString("\n  ")
			sb.WriteString(arg.Name)
			sb.WriteString(": ")
			sb.WriteString(arg.Desc)
		}
	}
	if d.returns != "" {
		sb.WriteString("\n\nReturns: ")
		sb.WriteString(d.returns)
	}
	if len(d.examples) > 0 {
		sb.WriteString("\n\nExamples:")
		for _, ex := range d.examples {
			sb.WriteString("\n  ")
			sb.WriteString(ex)
		}
	}
	return sb.String()
}
