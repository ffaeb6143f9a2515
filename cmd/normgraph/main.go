package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hanpama/normgraph/internal/eventbus"
	"github.com/hanpama/normgraph/internal/language"
	"github.com/hanpama/normgraph/internal/otel"
	"github.com/hanpama/normgraph/internal/policy"
	"github.com/hanpama/normgraph/internal/store"
	"github.com/hanpama/normgraph/internal/writer"
)

const rootUsage = `normgraph — normalize GraphQL results into a flat entity store

USAGE:
  normgraph <command> [flags]

COMMANDS:
  write            Normalize a query result into a store and print it
  help             Show help for any command
`

const writeUsage = `write FLAGS:
  -query <file>            GraphQL query document (required)
  -data <file>             JSON result tree for the query (required)
  -vars <json>             Variable bindings as a JSON object
  -operation <name>        Operation name when the document has several
  -root <key>              Target entity key (default: per operation type)
  -key <Type=f1,f2>        Key fields for a type. Repeatable
  -possible <Abs=T1,T2>    Concrete members of an interface/union. Repeatable
  -strict                  Warn about fields missing from the result
  -pretty                  Pretty-print the store JSON
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: normgraph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "write":
		return runWrite(args[1:])
	case "help":
		if len(args) > 1 && args[1] == "write" {
			fmt.Print(writeUsage)
		} else {
			fmt.Print(rootUsage)
		}
		return nil
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// repeatable collects repeated occurrences of a flag.
type repeatable []string

func (r *repeatable) String() string     { return strings.Join(*r, ",") }
func (r *repeatable) Set(v string) error { *r = append(*r, v); return nil }

func runWrite(args []string) error {
	fs := flag.NewFlagSet("write", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	queryPath := fs.String("query", "", "")
	dataPath := fs.String("data", "", "")
	varsJSON := fs.String("vars", "", "")
	operation := fs.String("operation", "", "")
	rootKey := fs.String("root", "", "")
	strict := fs.Bool("strict", false, "")
	pretty := fs.Bool("pretty", false, "")
	otelEndpoint := fs.String("otel.endpoint", "", "")
	otelService := fs.String("otel.service", "normgraph", "")
	var keySpecs, possibleSpecs repeatable
	fs.Var(&keySpecs, "key", "")
	fs.Var(&possibleSpecs, "possible", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, writeUsage)
		return err
	}
	if *queryPath == "" || *dataPath == "" {
		fmt.Fprint(os.Stderr, writeUsage)
		return fmt.Errorf("write: -query and -data are required")
	}

	querySrc, err := os.ReadFile(*queryPath)
	if err != nil {
		return err
	}
	doc, err := language.ParseQuery(string(querySrc))
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	dataSrc, err := os.ReadFile(*dataPath)
	if err != nil {
		return err
	}
	var result map[string]any
	if err := json.Unmarshal(dataSrc, &result); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}

	var variables map[string]any
	if *varsJSON != "" {
		if err := json.Unmarshal([]byte(*varsJSON), &variables); err != nil {
			return fmt.Errorf("parse vars: %w", err)
		}
	}

	cfg := policy.Config{
		Types:               map[string]policy.TypePolicy{},
		PossibleTypes:       map[string][]string{},
		StrictPossibleTypes: *strict,
	}
	for _, spec := range keySpecs {
		name, fields, err := splitSpec(spec)
		if err != nil {
			return fmt.Errorf("-key %q: %w", spec, err)
		}
		cfg.Types[name] = policy.TypePolicy{KeyFields: fields}
	}
	for _, spec := range possibleSpecs {
		name, members, err := splitSpec(spec)
		if err != nil {
			return fmt.Errorf("-possible %q: %w", spec, err)
		}
		cfg.PossibleTypes[name] = members
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer shutdown(ctx)

	mem := store.NewMemory()
	engine := writer.New(policy.NewTypePolicies(cfg), writer.Options{})
	res, err := engine.Write(ctx, writer.Request{
		Document:  doc,
		Operation: *operation,
		Result:    result,
		Variables: variables,
		RootKey:   *rootKey,
		Store:     mem,
	})
	if err != nil {
		return err
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d.Message)
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(mem.Extract(), "", "  ")
	} else {
		out, err = json.Marshal(mem.Extract())
	}
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// splitSpec parses "Name=a,b,c".
func splitSpec(spec string) (string, []string, error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok || name == "" || rest == "" {
		return "", nil, fmt.Errorf("expected Name=a,b")
	}
	return name, strings.Split(rest, ","), nil
}
