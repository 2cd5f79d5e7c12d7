// Package expr defines the boundary to the expression compiler. The
// compiler itself lives outside this module: processors hand it an
// expression graph and receive back an opaque numeric function which they
// call once per sample. Only the calling contract is fixed here.
package expr

import "fmt"

type (
	// Graph is an opaque expression graph handed to the compiler. Its
	// concrete representation belongs to the compiler implementation.
	Graph interface{}

	// Func is a compiled numeric function of fixed arity. It is pure:
	// same arguments produce the same value and no state is mutated.
	Func func(args []float64) float64

	// Compiler produces callable functions from expression graphs. Arity
	// is the number of arguments the returned function will be called
	// with; compilers must reject graphs that reference more inputs.
	Compiler interface {
		Compile(g Graph, arity int) (Func, error)
	}

	// CompilerFunc adapts a plain function to the Compiler interface.
	CompilerFunc func(g Graph, arity int) (Func, error)
)

// Compile implements Compiler.
func (fn CompilerFunc) Compile(g Graph, arity int) (Func, error) {
	return fn(g, arity)
}

// Constant returns a compiler that ignores the graph and always yields
// the provided value. It keeps processors testable without a real
// expression compiler behind the boundary.
func Constant(value float64) Compiler {
	return CompilerFunc(func(g Graph, arity int) (Func, error) {
		if arity < 0 {
			return nil, fmt.Errorf("negative arity: %d", arity)
		}
		return func([]float64) float64 {
			return value
		}, nil
	})
}
