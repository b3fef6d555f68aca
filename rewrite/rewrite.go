// Package rewrite runs HTML documents through the script tag transformer:
// it parses a document, processes every <script> element, and splices the
// synthesized markup back into the tree.
package rewrite

import (
	"fmt"
	"io"
	"strings"

	"tagmint/tags"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Rewriter transforms the <script> elements of whole HTML documents.
type Rewriter struct {
	helper *tags.ScriptTagHelper
}

// New creates a rewriter around a script tag transformer.
func New(helper *tags.ScriptTagHelper) *Rewriter {
	return &Rewriter{helper: helper}
}

// Rewrite parses the document from r, transforms its <script> elements and
// renders the result to w. Non-script markup passes through untouched.
func (rw *Rewriter) Rewrite(r io.Reader, w io.Writer) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("rewrite: parsing document: %w", err)
	}

	// Collect first: processing inserts and removes siblings.
	var scripts []*html.Node
	collectScripts(doc, &scripts)

	for _, n := range scripts {
		if err := rw.rewriteScript(n); err != nil {
			return err
		}
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("rewrite: rendering document: %w", err)
	}
	return nil
}

// RewriteString is a convenience wrapper over Rewrite.
func (rw *Rewriter) RewriteString(doc string) (string, error) {
	var b strings.Builder
	if err := rw.Rewrite(strings.NewReader(doc), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func collectScripts(n *html.Node, out *[]*html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script && n.Namespace == "" {
		*out = append(*out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectScripts(c, out)
	}
}

// rewriteScript runs one <script> node through the transformer and applies
// the output: attribute updates in place, post-element markup inserted
// after the node, and suppression replacing the node with its synthesized
// content.
func (rw *Rewriter) rewriteScript(n *html.Node) error {
	ctx := &tags.TagContext{
		TagName:    n.Data,
		Attributes: fromNodeAttrs(n.Attr),
	}
	out := &tags.Output{}
	if err := rw.helper.Process(ctx, out); err != nil {
		return err
	}

	parent := n.Parent

	if post := out.PostElement.String(); post != "" {
		nodes, err := parseFragment(post)
		if err != nil {
			return err
		}
		ref := n.NextSibling
		for _, node := range nodes {
			parent.InsertBefore(node, ref)
		}
	}

	if out.TagName == "" {
		nodes, err := parseFragment(out.Content.String())
		if err != nil {
			return err
		}
		for _, node := range nodes {
			parent.InsertBefore(node, n)
		}
		parent.RemoveChild(n)
		return nil
	}

	n.Attr = toNodeAttrs(out.Attributes)
	return nil
}

// parseFragment parses synthesized markup in body context, which keeps
// script elements and their raw text bodies intact.
func parseFragment(s string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, fmt.Errorf("rewrite: parsing synthesized markup: %w", err)
	}
	return nodes, nil
}

func fromNodeAttrs(attrs []html.Attribute) tags.AttributeList {
	out := make(tags.AttributeList, 0, len(attrs))
	for _, a := range attrs {
		if a.Namespace != "" {
			continue
		}
		out = append(out, tags.Attribute{Name: a.Key, Value: a.Val})
	}
	return out
}

func toNodeAttrs(attrs tags.AttributeList) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, html.Attribute{Key: a.Name, Val: a.Value})
	}
	return out
}
