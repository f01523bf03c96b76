package common

import (
	"context"
	"fmt"
	"os"
	"time"

	bookingrepo "djagency/internal/bookings/repository"
	djrepo "djagency/internal/djs/repository"
	inquiryrepo "djagency/internal/inquiries/repository"
	traderepo "djagency/internal/traderequests/repository"
	venuerepo "djagency/internal/venues/repository"
	"djagency/pkg/client"
	"djagency/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
)

var tables = []string{
	djrepo.CollectionName,
	venuerepo.CollectionName,
	bookingrepo.CollectionName,
	traderepo.CollectionName,
	inquiryrepo.CollectionName,
}

type IntegrationTestSuite struct {
	Config      *config.Config
	Agency      *client.AgencyClient
	ServiceName string
}

// NewIntegrationTestSuite connects to the store the server under test uses
// and waits for the server at TEST_SERVER_URL to become healthy.
func NewIntegrationTestSuite(serviceName string) (*IntegrationTestSuite, error) {
	cfg := config.Load(serviceName)
	cfg.SetStore()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	agency := client.NewAgencyClient(serverURL)
	if err := agency.HTTP().WaitForHealthy(30 * time.Second); err != nil {
		return nil, err
	}

	return &IntegrationTestSuite{
		Config:      cfg,
		Agency:      agency,
		ServiceName: serviceName,
	}, nil
}

// Reset removes every record so scenarios start from an empty store.
func (s *IntegrationTestSuite) Reset(ctx context.Context) error {
	if s.Config.StoreDriver == config.StorePostgres {
		for _, t := range tables {
			if _, err := s.Config.Client.Postgres.ExecContext(ctx, "TRUNCATE "+t); err != nil {
				return fmt.Errorf("truncate %s: %w", t, err)
			}
		}
		return nil
	}

	db := s.Config.Client.Mongo.Database(s.Config.MongoDatabaseName)
	for _, c := range tables {
		if _, err := db.Collection(c).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear %s: %w", c, err)
		}
	}
	return nil
}

func (s *IntegrationTestSuite) Teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Config.GracefulShutdown(ctx)
}
