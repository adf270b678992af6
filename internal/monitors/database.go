package monitors

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CheckDatabase pings the connection pool behind conn.
func CheckDatabase(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database not configured")
	}

	sqlDB, err := conn.DB()

	if err != nil {
		return fmt.Errorf("failed to get database handle: %v", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	return nil
}
