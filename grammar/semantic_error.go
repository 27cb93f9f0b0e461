package grammar

import "fmt"

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic error: %s", e.message)
}

var (
	semErrDupTokenName     = newSemanticError("duplicate token name")
	semErrDupRuleName      = newSemanticError("duplicate rule name")
	semErrDupNodeKind      = newSemanticError("duplicate node kind")
	semErrReservedRuleName = newSemanticError("no rule can be named \"prev\" or \"next\"")
	semErrNoSuchNeighbor   = newSemanticError("cannot resolve a neighbor reference")
	semErrUndefinedToken   = newSemanticError("undefined token")
	semErrUndefinedRule    = newSemanticError("undefined rule")
	semErrLabelIsRuleName  = newSemanticError("a label cannot collide with a rule name")
	semErrLabelIsReserved  = newSemanticError("a label cannot collide with a reserved identifier")
	semErrUnknownTopLevel  = newSemanticError("unknown top level node")
)
