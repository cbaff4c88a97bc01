// Package gorules holds go-ruleguard checks run by the linter in CI.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two consecutive guards returning the same value can merge with ||:
	//
	//	if a { return err }
	//	if b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same shape with continue inside loops.
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Nested loops are not always wrong but are worth a second look.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

// transport keeps outbound HTTP on clients with an explicit timeout.
func transport(m dsl.Matcher) {
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`use an http.Client with a configured Timeout, not the default client`)
}

// logging routes diagnostics through slog; stdout belongs to command output
// and the MCP stream.
func logging(m dsl.Matcher) {
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `log.Fatalf($*_)`, `log.Fatal($*_)`).
		Where(m.File().Imports("log")).
		Report(`use a *slog.Logger instead of the standard log package`)

	m.Match(`fmt.Printf($*_)`, `fmt.Println($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`write to an injected io.Writer or log with slog; stdout is reserved`)
}

// sqlsafety flags row queries built by string concatenation.
func sqlsafety(m dsl.Matcher) {
	m.Match(`$db.QueryContext($ctx, $q + $_, $*_)`, `$db.ExecContext($ctx, $q + $_, $*_)`).
		Where(m["q"].Type.Is(`string`)).
		Report(`build SQL with placeholders; identifiers must go through quoteIdent`)
}
