package executor

import "github.com/vektah/gqlparser/v2/ast"

// GetOperation selects the operation to run: the named one, or the only
// one when name is empty.
func GetOperation(document *ast.QueryDocument, operationName string) (*ast.OperationDefinition, *Error) {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		return nil, NewQueryError(QueryErrOperationNotFound, Pos{}, nil, "Must provide operation name if query contains multiple operations.")
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, NewQueryError(QueryErrOperationNotFound, Pos{}, nil, "Unknown operation named %q.", operationName)
}
