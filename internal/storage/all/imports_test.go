package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"supplychain/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	assert.Subset(t, storage.ListKinds(), []string{"mssql", "mysql", "postgres", "sqlite"})
}
