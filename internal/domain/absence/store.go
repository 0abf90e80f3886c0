package absence

import (
	"github.com/jackc/pgx/v5"

	"github.com/GoncaloAzev14/timesense-sub000/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// WithTx returns a store bound to the given transaction so absence and
// balance writes share one commit.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{DB: tx}
}
