package extractor

import (
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// collectEntities walks the whole tree and extracts every function and
// class definition, sorted ascending by start line.
func collectEntities(root *sitter.Node, src []byte) []Entity {
	entities := []Entity{}

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "class_definition":
			if ent, ok := extractClass(node, src); ok {
				entities = append(entities, ent)
			}
		case "function_definition", "async_function_definition":
			if ent, ok := extractFunction(node, src); ok {
				entities = append(entities, ent)
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].StartLine < entities[j].StartLine
	})
	return entities
}

func extractFunction(node *sitter.Node, src []byte) (Entity, bool) {
	name := fieldText(node, "name", src)
	if name == "" {
		return Entity{}, false
	}
	return Entity{
		Name:       name,
		Kind:       KindFunction,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Docstring:  bodyDocstring(node, src),
		Decorators: precedingDecorators(node, src),
		Visibility: Visibility(name),
		Parameters: extractParameters(node, src),
		ReturnType: fieldText(node, "return_type", src),
		IsAsync:    isAsync(node),
	}, true
}

func extractClass(node *sitter.Node, src []byte) (Entity, bool) {
	name := fieldText(node, "name", src)
	if name == "" {
		return Entity{}, false
	}
	return Entity{
		Name:        name,
		Kind:        KindClass,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		Docstring:   bodyDocstring(node, src),
		Decorators:  precedingDecorators(node, src),
		Visibility:  Visibility(name),
		BaseClasses: extractBaseClasses(node, src),
		Methods:     extractMethods(node, src),
	}, true
}

// Visibility derives public/private from the identifier. A single
// leading underscore is private, as is a double underscore without a
// trailing one; dunders like __init__ stay public.
func Visibility(name string) string {
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return "public"
	case strings.HasPrefix(name, "_"):
		return "private"
	default:
		return "public"
	}
}

func isAsync(node *sitter.Node) bool {
	if node.Type() == "async_function_definition" {
		return true
	}
	return node.Type() == "function_definition" &&
		node.ChildCount() > 0 &&
		node.Child(0).Type() == "async"
}

// precedingDecorators scans the definition's preceding siblings inside
// its parent, walking backward while they are decorator nodes, and
// reverses the collected order so it matches source order.
func precedingDecorators(node *sitter.Node, src []byte) []string {
	parent := node.Parent()
	if parent == nil {
		return nil
	}
	idx := -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		c := parent.Child(i)
		if c.StartByte() == node.StartByte() && c.EndByte() == node.EndByte() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	var decorators []string
	for i := idx - 1; i >= 0 && parent.Child(i).Type() == "decorator"; i-- {
		decorators = append(decorators, strings.TrimSpace(parent.Child(i).Content(src)))
	}
	for l, r := 0, len(decorators)-1; l < r; l, r = l+1, r-1 {
		decorators[l], decorators[r] = decorators[r], decorators[l]
	}
	return decorators
}

// bodyDocstring finds the first string-literal statement in the
// definition's body block, strips the outer quotes, and collapses
// whitespace runs to single spaces.
func bodyDocstring(node *sitter.Node, src []byte) string {
	block := node.ChildByFieldName("body")
	if block == nil {
		return ""
	}
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() == "expression_statement" && child.ChildCount() > 0 {
			expr := child.Child(0)
			if expr.Type() == "string" {
				return collapseDocstring(expr.Content(src))
			}
		}
		if child.Type() == "string" {
			return collapseDocstring(child.Content(src))
		}
	}
	return ""
}

func collapseDocstring(raw string) string {
	text := strings.Trim(raw, `"'`)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// extractParameters classifies the parameter list node by node.
// Separator tokens and the conventional self/cls receivers are
// excluded.
func extractParameters(node *sitter.Node, src []byte) []Param {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		text := strings.TrimSpace(child.Content(src))
		switch text {
		case "(", ")", ",", ":":
			continue
		}

		var p Param
		switch child.Type() {
		case "identifier":
			p = Param{Name: text, Kind: ParamPositional}

		case "typed_parameter":
			name, annotation, _ := strings.Cut(text, ":")
			p = Param{
				Name:           strings.TrimSpace(name),
				Kind:           ParamTyped,
				TypeAnnotation: strings.TrimSpace(annotation),
			}

		case "default_parameter":
			name, value, _ := strings.Cut(text, "=")
			p = Param{
				Name:         strings.TrimSpace(name),
				Kind:         ParamDefaulted,
				DefaultValue: strings.TrimSpace(value),
			}

		case "typed_default_parameter":
			name, rest, _ := strings.Cut(text, ":")
			p = Param{
				Name: strings.TrimSpace(name),
				Kind: ParamTypedDefaulted,
			}
			if annotation, value, found := strings.Cut(rest, "="); found {
				p.TypeAnnotation = strings.TrimSpace(annotation)
				p.DefaultValue = strings.TrimSpace(value)
			} else {
				p.TypeAnnotation = strings.TrimSpace(rest)
			}

		case "list_splat_pattern":
			p = Param{
				Name: strings.TrimSpace(strings.TrimLeft(text, "*")),
				Kind: ParamVariadicArgs,
			}

		case "dictionary_splat_pattern":
			p = Param{
				Name: strings.TrimSpace(strings.TrimLeft(text, "*")),
				Kind: ParamVariadicKwargs,
			}

		default:
			continue
		}

		// Receivers are excluded by name so annotated forms like
		// `self: "Box"` don't slip through as typed parameters.
		if p.Name == "self" || p.Name == "cls" {
			continue
		}
		params = append(params, p)
	}
	return params
}

func extractBaseClasses(node *sitter.Node, src []byte) []string {
	superclasses := node.ChildByFieldName("superclasses")
	if superclasses == nil {
		return nil
	}
	var bases []string
	for i := 0; i < int(superclasses.ChildCount()); i++ {
		child := superclasses.Child(i)
		switch child.Type() {
		case "identifier", "dotted_name", "attribute":
			bases = append(bases, strings.TrimSpace(child.Content(src)))
		}
	}
	return bases
}

func extractMethods(node *sitter.Node, src []byte) []MethodSummary {
	block := node.ChildByFieldName("body")
	if block == nil {
		return nil
	}
	var methods []MethodSummary
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() != "function_definition" {
			continue
		}
		methods = append(methods, MethodSummary{
			Name:      fieldText(child, "name", src),
			Docstring: bodyDocstring(child, src),
		})
	}
	return methods
}

// collectImports gathers the raw text of every import statement in the
// tree, in traversal order.
func collectImports(root *sitter.Node, src []byte) []string {
	var imports []string
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement", "import_from_statement":
			imports = append(imports, strings.TrimSpace(node.Content(src)))
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return imports
}

// fileDocstring finds a top-level string expression per PEP 257. The
// outer quotes are stripped; unlike entity docstrings the internal
// whitespace is preserved.
func fileDocstring(root *sitter.Node, src []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node.Type() == "expression_statement" && node.ChildCount() > 0 {
			expr := node.Child(0)
			if expr.Type() == "string" {
				return strings.Trim(expr.Content(src), `"'`)
			}
		}
		if node.Type() == "string" {
			return strings.Trim(node.Content(src), `"'`)
		}
	}
	return ""
}

func fieldText(node *sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Content(src))
}
