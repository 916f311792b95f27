package vm

import (
	"github.com/tyGavinZJU/miningbot-sub001/vm/types"
)

/*Expression - an executable fragment of contract code */
type Expression interface {
	Eval(env *Environment) (types.Value, error)
}

/*ExpressionFunc - adapts a func to Expression */
type ExpressionFunc func(env *Environment) (types.Value, error)

/*Eval - implement interface */
func (f ExpressionFunc) Eval(env *Environment) (types.Value, error) {
	return f(env)
}

/*Visibility - who can call a function */
type Visibility int

// function visibilities
const (
	Private Visibility = iota
	Public
	ReadOnly
)

/*FunctionBody - runs a function with its arguments bound */
type FunctionBody func(env *Environment, args []types.Value) (types.Value, error)

/*Function - a callable contract function */
type Function struct {
	Name       string
	Visibility Visibility
	Arity      int
	Body       FunctionBody
}

/*Contract - an executable contract */
type Contract struct {
	ID        types.ContractIdentifier
	Functions map[string]*Function
	// Define runs once when the contract is installed: it creates the
	// contract's variables, maps and tokens.
	Define Expression
}

// PublicFunction returns a function callable from outside the contract.
func (c *Contract) PublicFunction(name string) (*Function, bool) {
	fn, ok := c.Functions[name]
	if !ok || fn.Visibility == Private {
		return nil, false
	}
	return fn, true
}

/*Parser - turns installed source into an executable contract */
type Parser interface {
	Parse(id types.ContractIdentifier, source string) (*Contract, error)
}

/*ParserFunc - adapts a func to Parser */
type ParserFunc func(id types.ContractIdentifier, source string) (*Contract, error)

/*Parse - implement interface */
func (f ParserFunc) Parse(id types.ContractIdentifier, source string) (*Contract, error) {
	return f(id, source)
}
