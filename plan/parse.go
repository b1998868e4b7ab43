package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
)

/*
ParseAggregate parses the compact aggregate syntax:

	[window] aggregate fn(col, ...) [as name], ... [by col [as name], ...]

Columns are input column names or $<index>. For example:

	window aggregate sum(amount) as total, count() by customer
*/
func ParseAggregate(input string, schema *evbatch.EventSchema) (*AggregateOperator, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.NewPlanParseError("aggregate is empty")
	}
	tokens, err := lexAggregate(input)
	if err != nil {
		return nil, err
	}
	pc := &parseContext{input: input, tokens: tokens, schema: schema}
	aggOp, err := pc.parseAggregate()
	if err != nil {
		return nil, err
	}
	if err := aggOp.Validate(); err != nil {
		return nil, err
	}
	aggOp.ApplyDefaultNames()
	return aggOp, nil
}

var lex = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "ColumnIndex", Pattern: `\$[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "ListSeparator", Pattern: `,`},
	{Name: "LParens", Pattern: `\(`},
	{Name: "RParens", Pattern: `\)`},
	{Name: "Whitespace", Pattern: `[ \t\n\r]+`},
})

var (
	columnIndexTokenType   = lex.Symbols()["ColumnIndex"]
	identTokenType         = lex.Symbols()["Ident"]
	listSeparatorTokenType = lex.Symbols()["ListSeparator"]
	lParensTokenType       = lex.Symbols()["LParens"]
	rParensTokenType       = lex.Symbols()["RParens"]
	whitespaceTokenType    = lex.Symbols()["Whitespace"]
)

func lexAggregate(input string) ([]lexer.Token, error) {
	l, err := lex.Lex("", strings.NewReader(input))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var tokens []lexer.Token
	for {
		token, err := l.Next()
		if err != nil {
			var le *lexer.Error
			if errors.As(err, &le) {
				return nil, errorAtPosition("invalid character", le.Pos, input)
			}
			return nil, errors.WithStack(err)
		}
		if token.Type == lexer.EOF {
			break
		}
		if token.Type != whitespaceTokenType {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

type parseContext struct {
	input  string
	tokens []lexer.Token
	pos    int
	schema *evbatch.EventSchema
}

func (pc *parseContext) peek() (lexer.Token, bool) {
	if pc.pos == len(pc.tokens) {
		return lexer.Token{}, false
	}
	return pc.tokens[pc.pos], true
}

func (pc *parseContext) next() (lexer.Token, error) {
	if pc.pos == len(pc.tokens) {
		return lexer.Token{}, errors.NewPlanParseError("reached end of aggregate")
	}
	tok := pc.tokens[pc.pos]
	pc.pos++
	return tok, nil
}

func (pc *parseContext) expect(tokenType lexer.TokenType, desc string) (lexer.Token, error) {
	tok, err := pc.next()
	if err != nil {
		return lexer.Token{}, err
	}
	if tok.Type != tokenType {
		return lexer.Token{}, pc.unexpected(desc, tok)
	}
	return tok, nil
}

// acceptKeyword consumes the next token if it is the given keyword.
func (pc *parseContext) acceptKeyword(keyword string) bool {
	tok, ok := pc.peek()
	if ok && tok.Type == identTokenType && tok.Value == keyword {
		pc.pos++
		return true
	}
	return false
}

func (pc *parseContext) acceptType(tokenType lexer.TokenType) bool {
	tok, ok := pc.peek()
	if ok && tok.Type == tokenType {
		pc.pos++
		return true
	}
	return false
}

func (pc *parseContext) unexpected(expected string, tok lexer.Token) error {
	return errorAtPosition(fmt.Sprintf("expected %s but found '%s'", expected, tok.Value), tok.Pos, pc.input)
}

func (pc *parseContext) parseAggregate() (*AggregateOperator, error) {
	aggOp := &AggregateOperator{}
	aggOp.Windowed = pc.acceptKeyword("window")
	if !pc.acceptKeyword("aggregate") {
		tok, ok := pc.peek()
		if !ok {
			return nil, errors.NewPlanParseError("reached end of aggregate")
		}
		return nil, pc.unexpected("'aggregate'", tok)
	}
	tok, ok := pc.peek()
	if ok && !(tok.Type == identTokenType && tok.Value == "by") {
		if err := pc.parseValues(aggOp); err != nil {
			return nil, err
		}
	}
	if pc.acceptKeyword("by") {
		if err := pc.parseGroups(aggOp); err != nil {
			return nil, err
		}
	}
	if tok, ok := pc.peek(); ok {
		return nil, pc.unexpected("end of aggregate", tok)
	}
	if len(aggOp.Values) == 0 && len(aggOp.Groups) == 0 {
		return nil, errors.NewPlanParseError("aggregate must have at least one value or group")
	}
	return aggOp, nil
}

func (pc *parseContext) parseValues(aggOp *AggregateOperator) error {
	var names []string
	named := false
	for {
		fnTok, err := pc.expect(identTokenType, "function name")
		if err != nil {
			return err
		}
		if _, err := pc.expect(lParensTokenType, "'('"); err != nil {
			return err
		}
		var args []ColumnRef
		if !pc.acceptType(rParensTokenType) {
			for {
				ref, err := pc.parseColumnRef()
				if err != nil {
					return err
				}
				args = append(args, ref)
				if pc.acceptType(rParensTokenType) {
					break
				}
				if _, err := pc.expect(listSeparatorTokenType, "',' or ')'"); err != nil {
					return err
				}
			}
		}
		aggOp.Values = append(aggOp.Values, AggregateExpression{Name: fnTok.Value, Args: args})
		name, err := pc.parseOptionalAlias()
		if err != nil {
			return err
		}
		if name != "" {
			named = true
		}
		names = append(names, name)
		if !pc.acceptType(listSeparatorTokenType) {
			break
		}
	}
	if named {
		aggOp.ValueNames = fillNames(names, "v")
	}
	return nil
}

func (pc *parseContext) parseGroups(aggOp *AggregateOperator) error {
	var names []string
	for {
		ref, err := pc.parseColumnRef()
		if err != nil {
			return err
		}
		aggOp.Groups = append(aggOp.Groups, ref)
		name, err := pc.parseOptionalAlias()
		if err != nil {
			return err
		}
		if name == "" {
			name = pc.schema.ColumnNames()[ref.Index]
		}
		names = append(names, name)
		if !pc.acceptType(listSeparatorTokenType) {
			break
		}
	}
	aggOp.GroupNames = names
	return nil
}

func (pc *parseContext) parseOptionalAlias() (string, error) {
	if !pc.acceptKeyword("as") {
		return "", nil
	}
	tok, err := pc.expect(identTokenType, "alias")
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

func (pc *parseContext) parseColumnRef() (ColumnRef, error) {
	tok, err := pc.next()
	if err != nil {
		return ColumnRef{}, err
	}
	switch tok.Type {
	case columnIndexTokenType:
		index, err := strconv.Atoi(tok.Value[1:])
		if err != nil || index >= pc.schema.NumColumns() {
			return ColumnRef{}, errorAtPosition(fmt.Sprintf("column index %s out of range, input has %d columns",
				tok.Value, pc.schema.NumColumns()), tok.Pos, pc.input)
		}
		return ColumnRef{Index: index}, nil
	case identTokenType:
		index := pc.schema.ColumnIndex(tok.Value)
		if index == -1 {
			return ColumnRef{}, errorAtPosition(fmt.Sprintf("unknown column '%s'", tok.Value), tok.Pos, pc.input)
		}
		return ColumnRef{Index: index}, nil
	default:
		return ColumnRef{}, pc.unexpected("column", tok)
	}
}

func fillNames(names []string, prefix string) []string {
	for i, name := range names {
		if name == "" {
			names[i] = fmt.Sprintf("%s%d", prefix, i)
		}
	}
	return names
}

func errorAtPosition(msg string, pos lexer.Position, input string) error {
	return errors.NewPlanParseError("%s (line %d column %d):\n%s", msg, pos.Line, pos.Column,
		lineWithPosHighlight(input, pos))
}

func lineWithPosHighlight(input string, pos lexer.Position) string {
	lines := strings.Split(input, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	line := strings.ReplaceAll(lines[pos.Line-1], "\t", " ")
	return fmt.Sprintf("%s\n%s^", line, strings.Repeat(" ", max(pos.Column-1, 0)))
}
