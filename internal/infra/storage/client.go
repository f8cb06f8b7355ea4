// internal/infra/storage/client.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	delegationdom "launchpad/internal/domain/delegation"
	launchdom "launchpad/internal/domain/launch"
	"launchpad/internal/infra/logging"
	"launchpad/internal/infra/ucan"
)

// DefaultGatewayURLTemplate turns a content address into a retrievable URL.
const DefaultGatewayURLTemplate = "https://%s.ipfs.w3s.link/"

var ErrNotReady = errors.New("storage: client is not ready")

// Client は 1 セッションにつき 1 つだけ生成される upload クライアントです。
// Init が成功するまで UploadFile は ErrNotReady を返します。
type Client struct {
	agent       *ucan.Principal
	source      SpaceSource
	gateway     *Gateway
	serviceDID  string
	urlTemplate string
	now         func() time.Time

	initMu  sync.Mutex
	started bool
	initErr error

	mu    sync.Mutex
	ready bool
	space Space
}

type ClientParams struct {
	// Agent is created when nil.
	Agent       *ucan.Principal
	Source      SpaceSource
	Gateway     *Gateway
	ServiceDID  string
	URLTemplate string
}

func NewClient(p ClientParams) (*Client, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("storage: space source is nil")
	}
	if p.Gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	if err := ucan.ValidateDID(p.ServiceDID); err != nil {
		return nil, fmt.Errorf("storage: service did: %w", err)
	}

	agent := p.Agent
	if agent == nil {
		var err error
		if agent, err = ucan.GeneratePrincipal(); err != nil {
			return nil, err
		}
	}

	tpl := strings.TrimSpace(p.URLTemplate)
	if tpl == "" {
		tpl = DefaultGatewayURLTemplate
	}

	return &Client{
		agent:       agent,
		source:      p.Source,
		gateway:     p.Gateway,
		serviceDID:  strings.TrimSpace(p.ServiceDID),
		urlTemplate: tpl,
		now:         time.Now,
	}, nil
}

// Init acquires the space once. Later calls return the first outcome.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.started {
		return c.initErr
	}
	c.started = true

	space, err := c.source.Acquire(ctx, c.agent)
	if err != nil {
		c.initErr = err
		log.WithError(err).Error("[storage] client init FAILED")
		return err
	}

	c.mu.Lock()
	c.space = space
	c.ready = true
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"agent": logging.MaskShort(c.agent.DID()),
		"space": logging.MaskShort(space.DID),
	}).Info("[storage] client ready")
	return nil
}

func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Client) CurrentSpace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.space.DID
}

func (c *Client) Agent() *ucan.Principal { return c.agent }

// GatewayURL renders the retrieval URL for cid.
func (c *Client) GatewayURL(cid string) string {
	return fmt.Sprintf(c.urlTemplate, cid)
}

// UploadFile stores f in the current space and returns its content address and URL.
func (c *Client) UploadFile(ctx context.Context, f launchdom.File) (launchdom.StoredObject, error) {
	c.mu.Lock()
	ready, space := c.ready, c.space
	c.mu.Unlock()
	if !ready {
		return launchdom.StoredObject{}, ErrNotReady
	}

	inv, err := ucan.Delegate(ucan.DelegateParams{
		Issuer:   c.agent,
		Audience: c.serviceDID,
		Capabilities: []ucan.Capability{
			{With: space.DID, Can: delegationdom.CanBlobAdd},
			{With: space.DID, Can: delegationdom.CanUploadAdd},
		},
		Proofs:     space.Proofs,
		Expiration: c.now().Add(invocationTTL),
	})
	if err != nil {
		return launchdom.StoredObject{}, fmt.Errorf("sign upload invocation: %w", err)
	}

	cid, err := c.gateway.Upload(ctx, inv.Token(), f)
	if err != nil {
		return launchdom.StoredObject{}, err
	}
	return launchdom.StoredObject{CID: cid, URL: c.GatewayURL(cid)}, nil
}
