package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/dgo/v230"
	"github.com/dgraph-io/dgo/v230/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/concierge/concierge/internal/models"
)

// SemanticProvider answers from a Dgraph knowledge graph of regulations
// and requirements. It is registered only when a Dgraph endpoint is
// configured; the static table providers cover everything else.
type SemanticProvider struct {
	id     string
	topic  models.Topic
	client *dgo.Dgraph
	conn   *grpc.ClientConn
}

// NewSemanticProvider connects to a Dgraph alpha and prepares the schema
func NewSemanticProvider(id string, topic models.Topic, alphaURL string) (*SemanticProvider, error) {
	conn, err := grpc.Dial(alphaURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph: %w", err)
	}

	p := &SemanticProvider{
		id:     id,
		topic:  topic,
		client: dgo.NewDgraphClient(api.NewDgraphClient(conn)),
		conn:   conn,
	}

	if err := p.initSchema(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return p, nil
}

func (p *SemanticProvider) initSchema(ctx context.Context) error {
	schema := `
		fact.topic: string @index(exact) .
		fact.statement: string @index(fulltext) .
		fact.source: string .
		fact.confidence: float .
	`
	return p.client.Alter(ctx, &api.Operation{Schema: schema})
}

func (p *SemanticProvider) ID() string                 { return p.id }
func (p *SemanticProvider) Topic() models.Topic        { return p.topic }
func (p *SemanticProvider) TimeoutHint() time.Duration { return 2 * time.Second }

// Query fetches graph facts tagged with the intent's primary topic
func (p *SemanticProvider) Query(ctx context.Context, intent models.Intent) (*models.ProviderResult, error) {
	topic := intent.Primary
	if topic == "" {
		topic = p.topic
	}

	q := `query facts($topic: string) {
		facts(func: eq(fact.topic, $topic), first: 5) {
			statement: fact.statement
			source: fact.source
			confidence: fact.confidence
		}
	}`

	resp, err := p.client.NewReadOnlyTxn().QueryWithVars(ctx, q, map[string]string{"$topic": string(topic)})
	if err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}

	var parsed struct {
		Facts []struct {
			Statement  string  `json:"statement"`
			Source     string  `json:"source"`
			Confidence float64 `json:"confidence"`
		} `json:"facts"`
	}
	if err := json.Unmarshal(resp.Json, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse graph response: %w", err)
	}
	if len(parsed.Facts) == 0 {
		return nil, fmt.Errorf("no graph facts for topic %s", topic)
	}

	statements := make([]string, 0, len(parsed.Facts))
	sources := make([]string, 0, len(parsed.Facts))
	confidence := 0.0
	for _, f := range parsed.Facts {
		statements = append(statements, f.Statement)
		if f.Source != "" {
			sources = append(sources, f.Source)
		}
		if f.Confidence > confidence {
			confidence = f.Confidence
		}
	}

	return &models.ProviderResult{
		ProviderID: p.id,
		Topic:      topic,
		Payload: map[string]interface{}{
			"summary":    statements[0],
			"statements": statements,
		},
		Confidence: confidence,
		Sources:    sources,
	}, nil
}

// Close closes the Dgraph connection
func (p *SemanticProvider) Close() error {
	return p.conn.Close()
}
