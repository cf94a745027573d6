package cube2shp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Attr is a single KEY=VALUE item of a Cube record.
type Attr struct {
	Key    string
	Value  string
	Quoted bool
}

// Attrs keeps record attributes in file order. Keys compare case-insensitively.
type Attrs []Attr

func (a Attrs) Get(key string) (string, bool) {
	for _, attr := range a {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value, true
		}
	}
	return "", false
}

// Set replaces the first attribute named key, or appends a new one.
func (a *Attrs) Set(key, value string, quoted bool) {
	for i := range *a {
		if strings.EqualFold((*a)[i].Key, key) {
			(*a)[i].Value = value
			(*a)[i].Quoted = quoted
			return
		}
	}
	*a = append(*a, Attr{Key: key, Value: value, Quoted: quoted})
}

func (a Attrs) String(key string) string {
	v, _ := a.Get(key)
	return strings.TrimSpace(v)
}

func (a Attrs) Float(key string) float64 {
	v, ok := a.Get(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func (a Attrs) Int(key string) int {
	return int(a.Float(key))
}

type Line struct {
	Name  string
	Attrs Attrs // includes NAME
	Nodes []LineNode
}

// OperatorText is the USERA1 operator description.
func (l *Line) OperatorText() string {
	return l.Attrs.String("USERA1")
}

type LineNode struct {
	Num   int // negative when the line passes without stopping
	Attrs Attrs
}

func (n LineNode) N() int {
	if n.Num < 0 {
		return -n.Num
	}
	return n.Num
}

func (n LineNode) IsStop() bool {
	return n.Num > 0
}

func (n LineNode) NNTime() (float64, bool) {
	v, ok := n.Attrs.Get("NNTIME")
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

type record struct {
	Keyword string
	Items   []Attr // Key is empty for bare values
	Line    int
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokEquals
)

type token struct {
	kind tokenKind
	text string
	line int
}

func lex(input string) ([]token, error) {
	var tokens []token
	var word strings.Builder
	lineNo := 1

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{kind: tokWord, text: word.String(), line: lineNo})
			word.Reset()
		}
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ';':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
		case r == '\n':
			flush()
			lineNo++
		case r == ',' || unicode.IsSpace(r):
			flush()
		case r == '=':
			flush()
			tokens = append(tokens, token{kind: tokEquals, text: "=", line: lineNo})
		case r == '"' || r == '\'':
			flush()
			start := lineNo
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\n' {
					lineNo++
				}
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("line %d: unterminated string", start)
			}
			tokens = append(tokens, token{kind: tokString, text: string(runes[i+1 : j]), line: start})
			i = j
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens, nil
}

func parseRecords(r io.Reader) ([]record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	tokens, err := lex(string(data))
	if err != nil {
		return nil, err
	}

	var records []record
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		hasValue := i+1 < len(tokens) && tokens[i+1].kind == tokEquals

		switch {
		case tok.kind == tokEquals:
			return nil, fmt.Errorf("line %d: unexpected '='", tok.line)
		case hasValue:
			if i+2 >= len(tokens) || tokens[i+2].kind == tokEquals {
				return nil, fmt.Errorf("line %d: missing value for %s", tok.line, tok.text)
			}
			if len(records) == 0 {
				return nil, fmt.Errorf("line %d: %s outside of a record", tok.line, tok.text)
			}
			value := tokens[i+2]
			cur := &records[len(records)-1]
			cur.Items = append(cur.Items, Attr{Key: tok.text, Value: value.text, Quoted: value.kind == tokString})
			i += 2
		case tok.kind == tokWord && !isNumeric(tok.text):
			records = append(records, record{Keyword: strings.ToUpper(tok.text), Line: tok.line})
		default:
			if len(records) == 0 {
				return nil, fmt.Errorf("line %d: value %q outside of a record", tok.line, tok.text)
			}
			cur := &records[len(records)-1]
			cur.Items = append(cur.Items, Attr{Value: tok.text, Quoted: tok.kind == tokString})
		}
	}
	return records, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isNodeKey(key string) bool {
	return strings.EqualFold(key, "N") || strings.EqualFold(key, "NODES")
}

func lineFromRecord(rec record) (*Line, error) {
	line := &Line{}
	inNodes := false
	for _, item := range rec.Items {
		switch {
		case item.Key == "" || isNodeKey(item.Key):
			if item.Key == "" && !inNodes {
				return nil, fmt.Errorf("line %d: node %q before N=", rec.Line, item.Value)
			}
			num, err := strconv.Atoi(item.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid node %q", rec.Line, item.Value)
			}
			inNodes = true
			line.Nodes = append(line.Nodes, LineNode{Num: num})
		case inNodes:
			last := &line.Nodes[len(line.Nodes)-1]
			last.Attrs = append(last.Attrs, item)
		default:
			line.Attrs = append(line.Attrs, item)
		}
	}
	line.Name = line.Attrs.String("NAME")
	if line.Name == "" {
		return nil, fmt.Errorf("line %d: LINE without NAME", rec.Line)
	}
	return line, nil
}

// ParseLines reads the LINE records of a Cube public transport line file.
// Records with other keywords are skipped.
func ParseLines(r io.Reader) ([]*Line, error) {
	records, err := parseRecords(r)
	if err != nil {
		return nil, err
	}
	var lines []*Line
	for _, rec := range records {
		if rec.Keyword != "LINE" {
			continue
		}
		line, err := lineFromRecord(rec)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func ReadLineFile(path string) ([]*Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	lines, err := ParseLines(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return lines, nil
}

func formatAttr(a Attr) string {
	if a.Quoted {
		return fmt.Sprintf("%s=\"%s\"", a.Key, a.Value)
	}
	return a.Key + "=" + a.Value
}

// WriteLines serializes lines as a Cube line file, one node per row.
func WriteLines(w io.Writer, lines []*Line) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		var attrs []string
		for _, a := range line.Attrs {
			attrs = append(attrs, formatAttr(a))
		}
		_, _ = fmt.Fprintf(bw, "LINE %s", strings.Join(attrs, ", "))

		needKey := true
		for _, node := range line.Nodes {
			_, _ = bw.WriteString(",\n ")
			if needKey {
				_, _ = bw.WriteString("N=")
			}
			_, _ = bw.WriteString(strconv.Itoa(node.Num))
			for _, a := range node.Attrs {
				_, _ = bw.WriteString(", " + formatAttr(a))
			}
			needKey = len(node.Attrs) > 0
		}
		_, _ = bw.WriteString("\n")
	}
	return bw.Flush()
}
