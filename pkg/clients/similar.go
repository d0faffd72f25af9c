package clients

import (
	"crypto/tls"

	"github.com/jimlawless/whereami"
	"github.com/perone/euclidesdb/internal/cfg"
	"github.com/perone/euclidesdb/pkg/e"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// NewSimilarConn создаёт канал к сервису EuclidesDB.
// Соединение устанавливается лениво, при первом вызове.
func NewSimilarConn(cfg *cfg.SimilarCfg, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{
			ServerName: cfg.TLSServerName,
			MinVersion: tls.VersionTLS12,
		})
	}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	conn, err := grpc.NewClient(cfg.Addr(), opts...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return conn, nil
}
