package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/storage"
	"github.com/burnes-center/fair/pkg/storage/postgres"
	testutils "github.com/burnes-center/fair/pkg/utils/test"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("FAIR_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("FAIR_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	testutils.DescribeDriver(func() storage.Driver {
		ctx := context.Background()
		d, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		_, err = d.DB.ExecContext(ctx, "TRUNCATE relays")
		Expect(err).NotTo(HaveOccurred())
		return d
	})
})
