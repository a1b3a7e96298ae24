package topscorers

import "context"

type Repository interface {
	List(ctx context.Context, query Query) ([]Scorer, error)
}
