package translate

import (
	"github.com/opencog/question2atomese/pkg/atomese"
	"github.com/opencog/question2atomese/pkg/relex"
)

// Client translates parsed questions into Atomese queries. It controls how
// many questions are translated concurrently and how often saving a chunk
// of results is retried.
//
// A Client should be created using NewClient.
type Client struct {
	parallelQuestions int
	maxRetries        int
	chunkSize         int
	config            *atomese.Config
	builder           *relex.Builder
}

// NewClientParams configures a Client.
//
// ParallelQuestions limits concurrent translations (default 4).
// MaxRetries bounds attempts to save a chunk (default 3).
// ChunkSize is the number of translations saved per call (default 500).
// Config is the relation mapping; nil uses atomese.DefaultConfig.
type NewClientParams struct {
	ParallelQuestions int
	MaxRetries        int
	ChunkSize         int
	Config            *atomese.Config
}

// NewClient creates a Client.
//
// Example:
//
//	client, err := translate.NewClient(translate.NewClientParams{
//		ParallelQuestions: 8,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewClient(params NewClientParams) (*Client, error) {
	c := &Client{
		parallelQuestions: params.ParallelQuestions,
		maxRetries:        params.MaxRetries,
		chunkSize:         params.ChunkSize,
		config:            params.Config,
		builder:           relex.NewBuilder(),
	}
	if c.parallelQuestions <= 0 {
		c.parallelQuestions = 4
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.chunkSize <= 0 {
		c.chunkSize = 500
	}
	if c.config == nil {
		c.config = atomese.DefaultConfig()
	}

	return c, nil
}

// Config returns the relation mapping used by the client.
func (c *Client) Config() *atomese.Config {
	return c.config
}
