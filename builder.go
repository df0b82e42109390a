package authcore

import (
	"errors"
	"log"

	"github.com/vaultguard/authcore/password"
	"github.com/vaultguard/authcore/token"
)

// Builder assembles an Engine from a Config and its collaborators. Chain
// the With* methods and finish with Build. A Builder is single-use.
type Builder struct {
	config     Config
	store      UserStore
	sink       AuditSink
	dispatcher CodeDispatcher
	logger     *log.Logger
	built      bool
}

// New returns a Builder pre-loaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithUserStore sets the user persistence backend. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets the audit destination. When the sink also implements
// AuditReader, Engine.AuditLog becomes available. Defaults to NoOpSink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithCodeDispatcher sets the out-of-band code delivery channel (email,
// SMS). Delivery failures are logged and audited but never block a login.
func (b *Builder) WithCodeDispatcher(d CodeDispatcher) *Builder {
	b.dispatcher = d
	return b
}

// WithLogger sets the operational logger. Defaults to log.Default().
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration, wires the subsystems, and returns a
// ready Engine. The caller owns the Engine and should Close it when done.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("authcore: builder already used")
	}
	if b.store == nil {
		return nil, errors.New("authcore: user store is required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	tokens, err := token.NewService(token.Config{
		PreAuthSecret: cfg.Token.PreAuthSecret,
		AccessSecret:  cfg.Token.AccessSecret,
		PreAuthTTL:    cfg.Token.PreAuthTTL,
		AccessTTL:     cfg.Token.AccessTTL,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	passwd, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	dummyHash, err := passwd.Hash("authcore-timing-equalizer")
	if err != nil {
		return nil, err
	}

	sink := b.sink
	if sink == nil {
		sink = NoOpSink{}
	}
	reader, _ := sink.(AuditReader)

	e := &Engine{
		config:     cfg,
		store:      b.store,
		dispatcher: b.dispatcher,
		tokens:     tokens,
		passwd:     passwd,
		reader:     reader,
		metrics:    NewMetrics(cfg.Metrics),
		logger:     logger,
		dummyHash:  dummyHash,
	}
	e.mfa = &mfaEngine{
		store:  b.store,
		digits: cfg.MFA.CodeDigits,
		ttl:    cfg.MFA.CodeTTL,
	}
	e.audit = newAuditDispatcher(cfg.Audit, sink, logger.Printf)

	b.built = true
	return e, nil
}
