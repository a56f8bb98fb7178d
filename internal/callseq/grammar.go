package callseq

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// entryNode is one call-seq line:
//
//	receiver "." method [args] [block] "->" returns
//
// Attribute writer ("hash.default = obj"), index ("ary[i]"), operator
// ("ary + other") and bare function ("Integer(arg)") forms are accepted as
// well.
type entryNode struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Receiver string      `@Ident`
	Call     *callNode   `( @@`
	Index    *indexNode  `| @@`
	Binary   *binaryNode `| @@`
	Func     *funcNode   `| @@ )?`
	Block    *blockNode  `@@?`
	Returns  []*typeNode `Arrow @@ ( ( "," "or"? | "or" ) @@ )*`
}

type callNode struct {
	Method string     `"." @Ident`
	Assign *argNode   `(   "=" @@`
	Parens bool       `  | @"("`
	Args   []*argNode `    ( @@ ( "," @@ )* )? ")" )?`
}

type indexNode struct {
	Args   []*argNode `"[" ( @@ ( "," @@ )* )? "]"`
	Assign *argNode   `( "=" @@ )?`
}

type binaryNode struct {
	Op      string   `@( Op | "*" | "&" | "|" )`
	Operand *argNode `@@`
}

type funcNode struct {
	Args []*argNode `"(" ( @@ ( "," @@ )* )? ")"`
}

type argNode struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Rest    bool   `  @Ellipsis`
	Prefix  string `| ( @( "*" | "**" | "&" )?`
	Name    string `    @Ident`
	Sep     string `    @( ":" | "=" )?`
	Default string `    @( String | Number | Symbol | Global | "[" "]" | "{" "}" | Ident ( ( "." | Scope ) Ident )* )? )`
}

type blockNode struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Params []*paramNode `"{" ( "|" ( @@ ( "," @@ )* )? "|" )?`
	Body   []string     `@( ~"}" )* "}"`
}

type paramNode struct {
	Prefix string `@( "*" | "**" | "&" )?`
	Name   string `@Ident`
}

type typeNode struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Tuple  []string `(   "[" @( Ident | Ellipsis ) ( "," @( Ident | Ellipsis ) )* "]"`
	Name   string   `  | @( Ident ( Scope Ident )* | Number | String | Symbol | "[" "]" | "{" "}" ) )`
}

var callSeqLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Arrow", Pattern: `->|→|=>`},
	{Name: "Ellipsis", Pattern: `\.\.\.|…`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Scope", Pattern: `::`},
	{Name: "Symbol", Pattern: `:[A-Za-z_]\w*[?!=]?`},
	{Name: "Global", Pattern: `\$(?:\w+|[^\s\w])`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_]\w*[?!]?`},
	{Name: "Op", Pattern: `<=>|===|==|=~|!=|!~|<<|>>|<=|>=|\*\*|[-+/%<>^~!]`},
	{Name: "Punct", Pattern: `[.(),{}|=\[\]:*&]`},
})

var entryParser = participle.MustBuild[entryNode](
	participle.Lexer(callSeqLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
