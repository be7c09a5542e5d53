package secrets

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/errors"
)

// DefaultPostgresPort is used when a credentials secret has no port.
const DefaultPostgresPort = 5432

// DBCredentials is the JSON layout of an RDS database secret.
type DBCredentials struct {
	Engine   string `json:"engine"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// DBCredentials reads the database secret name.
//
// Errors:
//   - ErrInvalidInput: If the secret is not valid JSON or has no host or username
//   - any error returned by GetString
func (c *Client) DBCredentials(ctx context.Context, name string) (*DBCredentials, error) {
	var creds DBCredentials
	if err := c.GetJSON(ctx, name, &creds); err != nil {
		return nil, err
	}
	if creds.Host == "" || creds.Username == "" {
		return nil, errors.NewError("dbCredentials", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("secret must contain host and username")
	}
	return &creds, nil
}

// DSN renders the credentials as a postgres:// connection URL.
func (d *DBCredentials) DSN() string {
	port := d.Port
	if port == 0 {
		port = DefaultPostgresPort
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(port)),
		Path:   "/" + d.DBName,
	}
	return u.String()
}

// PgxConfig parses DSN into a pgx connection config.
//
// Errors:
//   - ErrInvalidConfiguration: If pgx rejects the connection string
func (d *DBCredentials) PgxConfig() (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(d.DSN())
	if err != nil {
		// pgx errors may echo the connection string, password included.
		return nil, errors.NewError("pgxConfig", errors.ErrInvalidConfiguration).
			WithMessage("cannot parse connection string for host " + d.Host)
	}
	return cfg, nil
}
