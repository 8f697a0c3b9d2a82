package loader

import (
	"fmt"
	"io"
	"sync"
	"text/template"
	"text/template/parse"
)

type cached struct {
	tmpl     *template.Template
	upToDate func() bool
}

// Environment compiles templates resolved by a Loader. A template may
// include others with {{template "path/to/other" .}}; referenced names
// that are not defined in the same source are loaded from the Loader
// too. Compiled templates are cached and re-validated with
// Source.UpToDate.
//
// An Environment is safe for concurrent use.
type Environment struct {
	loader *Loader
	funcs  template.FuncMap

	mu    sync.Mutex
	cache map[string]cached
}

// NewEnvironment returns an Environment over l. funcs may be nil.
func NewEnvironment(l *Loader, funcs template.FuncMap) *Environment {
	return &Environment{loader: l, funcs: funcs, cache: make(map[string]cached)}
}

// Loader returns the loader templates are resolved with.
func (e *Environment) Loader() *Loader { return e.loader }

// Get returns the compiled template called name.
func (e *Environment) Get(name string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.cache[name]; ok && c.upToDate() {
		return c.tmpl, nil
	}
	tmpl, upToDate, err := e.compile(name)
	if err != nil {
		return nil, err
	}
	e.cache[name] = cached{tmpl: tmpl, upToDate: upToDate}
	return tmpl, nil
}

// Render executes the template called name with data.
func (e *Environment) Render(w io.Writer, name string, data any) error {
	tmpl, err := e.Get(name)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func (e *Environment) compile(name string) (*template.Template, func() bool, error) {
	root := template.New(name)
	if e.funcs != nil {
		root = root.Funcs(e.funcs)
	}

	var checks []func() bool
	load := func(t *template.Template, name string) error {
		src, err := e.loader.Resolve(name)
		if err != nil {
			return err
		}
		if _, err := t.Parse(src.Text); err != nil {
			return fmt.Errorf("%s: %w", src.Filename, err)
		}
		checks = append(checks, src.UpToDate)
		return nil
	}

	if err := load(root, name); err != nil {
		return nil, nil, err
	}
	// Pull in every referenced template until the set is closed.
	for {
		missing := undefinedReferences(root)
		if len(missing) == 0 {
			break
		}
		for _, ref := range missing {
			if err := load(root.New(ref), ref); err != nil {
				return nil, nil, fmt.Errorf("template %s: %w", name, err)
			}
		}
	}

	upToDate := func() bool {
		for _, check := range checks {
			if !check() {
				return false
			}
		}
		return true
	}
	return root, upToDate, nil
}

// undefinedReferences lists names used by {{template}} actions in t's
// set that the set does not define.
func undefinedReferences(t *template.Template) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, defined := range t.Templates() {
		if defined.Tree == nil {
			continue
		}
		walkTemplateNodes(defined.Tree.Root, func(ref string) {
			if seen[ref] {
				return
			}
			seen[ref] = true
			if existing := t.Lookup(ref); existing == nil || existing.Tree == nil {
				missing = append(missing, ref)
			}
		})
	}
	return missing
}

func walkTemplateNodes(n parse.Node, visit func(string)) {
	switch n := n.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			walkTemplateNodes(child, visit)
		}
	case *parse.TemplateNode:
		visit(n.Name)
	case *parse.IfNode:
		walkTemplateNodes(n.List, visit)
		walkTemplateNodes(n.ElseList, visit)
	case *parse.RangeNode:
		walkTemplateNodes(n.List, visit)
		walkTemplateNodes(n.ElseList, visit)
	case *parse.WithNode:
		walkTemplateNodes(n.List, visit)
		walkTemplateNodes(n.ElseList, visit)
	}
}
