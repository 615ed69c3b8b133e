// Package manifest parses the subset of the infrastructure manifest language
// that declares resources: a single class whose body is a list of
// '@type {'name': key => value, ...}' records.
//
// The grammar is a PEG evaluated by recursive descent:
//
//	document      := ws 'class' ws QualifiedName(2) blockOpen classBody blockClose
//	classBody     := record*
//	record        := ws '@' QualifiedName(3) blockOpen QuotedString ws ':' attrList blockClose
//	attrList      := (attr (ws ',' ws attr)* ws ','?) | ε
//	attr          := idAttr | genAttr
//	idAttr        := ws ('u'|'g') 'id' ws '=>' ws QuotedDigits
//	genAttr       := ws identifier ws '=>' ws value
//	value         := QuotedString | 'undef' | 'true' | 'false' | typedRef | bareWord | array
//	typedRef      := identifier ('::' identifier)* '[' QuotedString ']'
//	array         := '[' (QuotedString (ws ',' ws QuotedString)* ws ','?)? ws ']'
//
// Manifest language semantics (variables, conditionals, includes) are not
// evaluated.
package manifest

import (
	"sort"
	"strconv"
	"unicode"
)

// Parse parses already stripped manifest text.
func Parse(text string) (ClassDeclaration, error) {
	return parse(text, nil)
}

// ParseSource strips comments from raw manifest text and parses the result.
// Positions in syntax errors and records refer to lines of raw.
func ParseSource(raw string) (ClassDeclaration, error) {
	text, lineMap := StripComments(raw)
	return parse(text, lineMap)
}

func parse(text string, lineMap []int) (ClassDeclaration, error) {
	p := &parser{src: []rune(text), lineMap: lineMap, expected: make(map[string]struct{})}
	p.lineStarts = []int{0}
	for i, r := range p.src {
		if r == '\n' {
			p.lineStarts = append(p.lineStarts, i+1)
		}
	}
	decl, ok := p.document()
	if !ok {
		return ClassDeclaration{}, p.syntaxError()
	}
	return decl, nil
}

type parser struct {
	src        []rune
	pos        int
	lineStarts []int
	lineMap    []int

	furthest int
	expected map[string]struct{}
}

// expect records that what was wanted at the current position. Only the
// expectations at the furthest position are kept.
func (p *parser) expect(what string) {
	switch {
	case p.pos > p.furthest:
		p.furthest = p.pos
		p.expected = map[string]struct{}{what: {}}
	case p.pos == p.furthest:
		p.expected[what] = struct{}{}
	}
}

func (p *parser) syntaxError() *SyntaxError {
	line, col := p.position(p.furthest)
	expected := make([]string, 0, len(p.expected))
	for e := range p.expected {
		expected = append(expected, e)
	}
	sort.Strings(expected)

	found := "end of input"
	if p.furthest < len(p.src) {
		found = strconv.QuoteRune(p.src[p.furthest])
	}
	return &SyntaxError{Line: line, Column: col, Expected: expected, Found: found}
}

// position converts a rune offset to a 1-based line and column, mapping the
// line back to the unstripped source when a line map is known.
func (p *parser) position(offset int) (int, int) {
	idx := sort.Search(len(p.lineStarts), func(i int) bool { return p.lineStarts[i] > offset }) - 1
	line, col := idx+1, offset-p.lineStarts[idx]+1
	if idx < len(p.lineMap) {
		line = p.lineMap[idx]
	}
	return line, col
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) ws() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) literal(s string) bool {
	start := p.pos
	for _, r := range s {
		if p.eof() || p.src[p.pos] != r {
			p.pos = start
			p.expect(strconv.Quote(s))
			return false
		}
		p.pos++
	}
	return true
}

func (p *parser) document() (ClassDeclaration, bool) {
	var decl ClassDeclaration

	p.ws()
	if !p.literal("class") {
		return decl, false
	}
	p.ws()
	name, ok := p.qualifiedName(2)
	if !ok {
		return decl, false
	}
	if !p.blockOpen() {
		return decl, false
	}
	records := p.classBody()
	if !p.blockClose() {
		return decl, false
	}
	if !p.eof() {
		p.expect("end of input")
		return decl, false
	}

	decl.Name = name
	decl.Records = records
	return decl, true
}

func (p *parser) blockOpen() bool {
	p.ws()
	if !p.literal("{") {
		return false
	}
	p.ws()
	return true
}

func (p *parser) blockClose() bool {
	p.ws()
	if !p.literal("}") {
		return false
	}
	p.ws()
	return true
}

func (p *parser) classBody() []RawRecord {
	var records []RawRecord
	for {
		start := p.pos
		rec, ok := p.record()
		if !ok {
			p.pos = start
			return records
		}
		records = append(records, rec)
	}
}

func (p *parser) record() (RawRecord, bool) {
	var rec RawRecord

	p.ws()
	line, _ := p.position(p.pos)
	if !p.literal("@") {
		return rec, false
	}
	rtype, ok := p.qualifiedName(3)
	if !ok {
		return rec, false
	}
	if !p.blockOpen() {
		return rec, false
	}
	name, ok := p.quotedString()
	if !ok {
		return rec, false
	}
	p.ws()
	if !p.literal(":") {
		return rec, false
	}
	attrs := p.attrList()
	if !p.blockClose() {
		return rec, false
	}

	rec.Type = rtype
	rec.Name = name
	rec.Attributes = attrs
	rec.Line = line
	return rec, true
}

func (p *parser) attrList() []Attribute {
	start := p.pos
	first, ok := p.attr()
	if !ok {
		p.pos = start
		return nil
	}
	attrs := []Attribute{first}
	for {
		next := p.pos
		p.ws()
		if !p.literal(",") {
			p.pos = next
			break
		}
		p.ws()
		a, ok := p.attr()
		if !ok {
			p.pos = next
			break
		}
		attrs = append(attrs, a)
	}
	p.ws()
	if p.peek() == ',' {
		p.pos++
	}
	return attrs
}

func (p *parser) attr() (Attribute, bool) {
	start := p.pos
	if a, ok := p.idAttr(); ok {
		return a, true
	}
	p.pos = start
	if a, ok := p.genAttr(); ok {
		return a, true
	}
	p.pos = start
	return Attribute{}, false
}

func (p *parser) idAttr() (Attribute, bool) {
	p.ws()
	line, _ := p.position(p.pos)
	var key string
	switch p.peek() {
	case 'u':
		key = "uid"
	case 'g':
		key = "gid"
	default:
		return Attribute{}, false
	}
	if !p.literal(key) {
		return Attribute{}, false
	}
	p.ws()
	if !p.literal("=>") {
		return Attribute{}, false
	}
	p.ws()
	n, ok := p.quotedDigits()
	if !ok {
		return Attribute{}, false
	}
	return Attribute{Key: key, Value: Int(n), Line: line}, true
}

func (p *parser) genAttr() (Attribute, bool) {
	p.ws()
	line, _ := p.position(p.pos)
	key, ok := p.identifier()
	if !ok {
		return Attribute{}, false
	}
	p.ws()
	if !p.literal("=>") {
		return Attribute{}, false
	}
	p.ws()
	v, ok := p.value()
	if !ok {
		return Attribute{}, false
	}
	return Attribute{Key: key, Value: v, Line: line}, true
}

// value tries every alternative from the same position and keeps the one
// that consumed the most input. Ties go to the earlier alternative, so
// keywords win over bare words of the same length.
func (p *parser) value() (Value, bool) {
	alternatives := []func() (Value, bool){
		func() (Value, bool) {
			s, ok := p.quotedString()
			return Str(s), ok
		},
		func() (Value, bool) { return Null{}, p.literal("undef") },
		func() (Value, bool) { return Bool(true), p.literal("true") },
		func() (Value, bool) { return Bool(false), p.literal("false") },
		p.typedRef,
		p.bareWord,
		p.array,
	}

	start := p.pos
	var (
		best    Value
		bestEnd = -1
	)
	for _, alt := range alternatives {
		p.pos = start
		v, ok := alt()
		if ok && p.pos > bestEnd {
			best = v
			bestEnd = p.pos
		}
	}
	if bestEnd < 0 {
		p.pos = start
		return nil, false
	}
	p.pos = bestEnd
	return best, true
}

func (p *parser) typedRef() (Value, bool) {
	start := p.pos
	ns, ok := p.identifier()
	if !ok {
		return nil, false
	}
	for {
		segStart := p.pos
		if p.peek() != ':' || !p.literal("::") {
			p.pos = segStart
			break
		}
		seg, ok := p.identifier()
		if !ok {
			p.pos = segStart
			break
		}
		ns += "::" + seg
	}
	if !p.literal("[") {
		return nil, false
	}
	p.ws()
	lit, ok := p.quotedString()
	if !ok {
		return nil, false
	}
	p.ws()
	if !p.literal("]") {
		return nil, false
	}
	return TypedRef{Namespace: ns, Literal: lit, Raw: string(p.src[start:p.pos])}, true
}

func (p *parser) bareWord() (Value, bool) {
	w, ok := p.identifier()
	if !ok {
		return nil, false
	}
	return BareWord(w), true
}

func (p *parser) array() (Value, bool) {
	if !p.literal("[") {
		return nil, false
	}
	p.ws()
	items := List{}
	if first, ok := p.quotedString(); ok {
		items = append(items, first)
		for {
			next := p.pos
			p.ws()
			if !p.literal(",") {
				p.pos = next
				break
			}
			p.ws()
			s, ok := p.quotedString()
			if !ok {
				p.pos = next
				break
			}
			items = append(items, s)
		}
		p.ws()
		if p.peek() == ',' {
			p.pos++
		}
	}
	p.ws()
	if !p.literal("]") {
		return nil, false
	}
	return items, true
}

func (p *parser) quotedString() (string, bool) {
	start := p.pos
	if p.peek() != '\'' {
		p.expect("quoted string")
		return "", false
	}
	p.pos++
	for !p.eof() && p.src[p.pos] != '\'' {
		p.pos++
	}
	if p.eof() {
		p.expect(`"'"`)
		p.pos = start
		return "", false
	}
	s := string(p.src[start+1 : p.pos])
	p.pos++
	return s, true
}

func (p *parser) quotedDigits() (int, bool) {
	start := p.pos
	if !p.literal("'") {
		return 0, false
	}
	digitsStart := p.pos
	for !p.eof() && unicode.IsDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digitsStart {
		p.expect("digit")
		p.pos = start
		return 0, false
	}
	digits := string(p.src[digitsStart:p.pos])
	if !p.literal("'") {
		p.pos = start
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		p.pos = start
		return 0, false
	}
	return n, true
}

// qualifiedName reads exactly k letter sequences joined by '::'.
func (p *parser) qualifiedName(k int) (QualifiedName, bool) {
	name := make(QualifiedName, 0, k)
	for i := 0; i < k; i++ {
		if i > 0 && !p.literal("::") {
			return nil, false
		}
		start := p.pos
		for !p.eof() && unicode.IsLetter(p.src[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			p.expect("letter")
			return nil, false
		}
		name = append(name, string(p.src[start:p.pos]))
	}
	return name, true
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func (p *parser) identifier() (string, bool) {
	start := p.pos
	for !p.eof() && isIdentRune(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.expect("identifier")
		return "", false
	}
	return string(p.src[start:p.pos]), true
}
