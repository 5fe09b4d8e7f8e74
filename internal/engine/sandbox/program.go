package sandbox

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/engine"
)

// Program generates the Node.js program for one preview run. The outcome
// line it prints starts with marker.
func Program(body string, reg *binding.Registry, entryPoint, marker string) (string, error) {
	names, err := json.Marshal(reg.Names())
	if err != nil {
		return "", fmt.Errorf("sandbox: encoding names: %w", err)
	}
	wrapped, err := json.Marshal(engine.Wrap(body, entryPoint))
	if err != nil {
		return "", fmt.Errorf("sandbox: encoding body: %w", err)
	}
	quoted, err := json.Marshal(marker)
	if err != nil {
		return "", fmt.Errorf("sandbox: encoding marker: %w", err)
	}

	// Everything lives in one function scope: code built by new Function
	// only sees globals, never the marker or the captured helpers.
	var b strings.Builder
	b.WriteString("(() => {\n")
	seen := make(map[string]bool)
	for _, bd := range reg.Bindings() {
		p, ok := bd.Value.(engine.PreludeProvider)
		if !ok {
			continue
		}
		prelude := p.Prelude()
		if prelude == "" || seen[prelude] {
			continue
		}
		seen[prelude] = true
		b.WriteString(prelude)
		b.WriteString("\n")
	}

	b.WriteString("const __names = ")
	b.Write(names)
	b.WriteString(";\nconst __values = [\n")
	for _, bd := range reg.Bindings() {
		expr, err := declare(bd)
		if err != nil {
			return "", err
		}
		b.WriteString("  ")
		b.WriteString(expr)
		b.WriteString(",\n")
	}
	b.WriteString("];\nconst __body = ")
	b.Write(wrapped)
	b.WriteString(";\nconst __marker = ")
	b.Write(quoted)
	b.WriteString(";\n")
	b.WriteString(runner)
	b.WriteString("})();\n")

	return b.String(), nil
}

// declare returns the script expression for one binding value.
func declare(bd binding.Binding) (string, error) {
	if d, ok := bd.Value.(engine.Declarer); ok {
		return d.Declare(), nil
	}
	if bd.Value != nil && reflect.TypeOf(bd.Value).Kind() == reflect.Func {
		return "", apperror.ValidationFailed(bd.Name, fmt.Sprintf("binding %q is a Go function and cannot run in the sandbox", bd.Name))
	}
	data, err := json.Marshal(bd.Value)
	if err != nil {
		return "", apperror.ValidationFailed(bd.Name, fmt.Sprintf("binding %q is not JSON data: %v", bd.Name, err))
	}
	return string(data), nil
}

// runner builds and runs the wrapper, then prints the outcome line and exits.
//
// write and exit are captured before user code runs, so patching process
// does not affect them. Exiting right away means timers, promises and exit
// handlers registered by user code never get to print after the outcome.
const runner = `const __write = process.stdout.write.bind(process.stdout);
const __exit = (process.reallyExit || process.exit).bind(process);
const __stringify = JSON.stringify;
const __describe = (e) => ({
  name: (e && e.name) ? String(e.name) : "Error",
  message: (e && e.message !== undefined) ? String(e.message) : String(e),
  stack: (e && e.stack) ? String(e.stack) : "",
});
const __outcome = (() => {
  let fn;
  try { fn = new Function(...__names, __body); } catch (e) { return { phase: "compile", error: __describe(e) }; }
  let entry;
  try { entry = fn(...__values); } catch (e) { return { phase: "construct", error: __describe(e) }; }
  let tree;
  try { tree = typeof entry === "function" ? entry() : entry; } catch (e) { return { phase: "invoke", error: __describe(e) }; }
  return { phase: "output", tree: tree === undefined ? null : tree };
})();
let __line;
try { __line = __stringify(__outcome); } catch (e) { __line = __stringify({ phase: "invoke", error: __describe(e) }); }
__write("\n" + __marker + __line + "\n");
__exit(0);
`
