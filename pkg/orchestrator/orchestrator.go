package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	internalLoader "github.com/goliatone/go-cardgen/internal/loader"
	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/httpclient"
	"github.com/goliatone/go-cardgen/pkg/model"
	"github.com/goliatone/go-cardgen/pkg/overlay"
	"github.com/goliatone/go-cardgen/pkg/render"
	"github.com/goliatone/go-cardgen/pkg/renderers/html"
	"github.com/goliatone/go-cardgen/pkg/renderers/text"
	"github.com/goliatone/go-cardgen/pkg/schema"
	"github.com/goliatone/go-cardgen/pkg/sections"
	"github.com/goliatone/go-cardgen/pkg/theme"
	gotheme "github.com/goliatone/go-theme"
	"go.uber.org/zap"
)

const defaultRendererName = "html"

// Decorator mutates a built card model before rendering. Overlay decorators
// run first, then user decorators in registration order.
type Decorator func(ctx context.Context, m *model.CardModel) error

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom card document loader.
func WithLoader(loader card.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSections injects the section registry used for alias resolution and
// validation hints.
func WithSections(registry *sections.Registry) Option {
	return func(o *Orchestrator) {
		if registry != nil {
			o.sections = registry
		}
	}
}

// WithTheme sets the default theme and variant resolved when a request does
// not name its own.
func WithTheme(name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithThemeSelector injects a selector consulted for every request's theme.
func WithThemeSelector(selector gotheme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeProvider injects a manifest provider plus the default theme and
// variant to select from it. go-theme's registry satisfies the selector
// interface.
func WithThemeProvider(provider gotheme.ThemeProvider, name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeSelector = gotheme.Selector{Registry: provider}
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithOverlays injects a pre-built overlay store.
func WithOverlays(store *overlay.Store) Option {
	return func(o *Orchestrator) {
		o.overlays = store
		o.overlaysSpecified = true
	}
}

// WithOverlayFS supplies an fs.FS holding overlay documents. Pass nil to
// disable the embedded defaults.
func WithOverlayFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.overlayFS = fsys
		o.overlaysSpecified = true
	}
}

// WithCardTransformer registers a Transformer that can mutate parsed cards
// before sections are normalized.
func WithCardTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorator appends model decorators that run after overlays.
func WithDecorator(decorators ...Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithHTTPClient bases the URL fetcher on the provided client, keeping the
// resilient interceptor chain in front of it.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Orchestrator) {
		o.httpClient = client
	}
}

// WithFetcher injects the fetcher used for URL card sources, replacing the
// default resilient client.
func WithFetcher(fetcher card.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithColumns sets the card grid width passed to the model builder.
func WithColumns(columns int) Option {
	return func(o *Orchestrator) {
		o.columns = columns
	}
}

// WithLogger routes pipeline warnings through the provided logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictValidation makes schema errors fatal instead of carrying them
// into render options as annotations.
func WithStrictValidation(strict bool) Option {
	return func(o *Orchestrator) {
		o.strict = strict
	}
}

// Orchestrator coordinates the full pipeline from card document to rendered
// output. It applies sensible defaults (HTML renderer, embedded theme and
// overlays, resilient URL fetching) while remaining open to dependency
// injection for advanced callers.
type Orchestrator struct {
	loader            card.Loader
	registry          *render.Registry
	defaultRenderer   string
	sections          *sections.Registry
	overlays          *overlay.Store
	overlayFS         fs.FS
	overlaysSpecified bool
	overlayConfigured bool
	decorators        []Decorator
	transformer       Transformer
	themeSelector     gotheme.ThemeSelector
	themeResolver     *theme.Resolver
	themeName         string
	themeVariant      string
	httpClient        *http.Client
	fetcher           card.Fetcher
	ownedClient       *httpclient.Client
	columns           int
	logger            *zap.Logger
	strict            bool
	initialiseErr     error
	defaultsApplied   bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs required to render a card.
type Request struct {
	// Source identifies where the card document lives. Optional when
	// Document is supplied.
	Source card.Source

	// Document allows callers to bypass the loader when they already have a
	// loaded payload.
	Document *card.Document

	// Renderer names the renderer to use. If empty, the orchestrator falls
	// back to the configured default renderer.
	Renderer string

	// ThemeName and ThemeVariant select the theme for this request,
	// overriding the orchestrator defaults.
	ThemeName    string
	ThemeVariant string

	// Options carries per-request render instructions such as section
	// subsets, locale, or extra meta tags. When omitted, renderers receive
	// a struct filled in by the pipeline (theme, validation issues).
	Options render.RenderOptions
}

// Result is the rendered output plus the model and validation findings that
// produced it.
type Result struct {
	Output      []byte
	ContentType string
	Model       model.CardModel
	Issues      []schema.Issue
}

// ValidationError reports schema errors under strict validation.
type ValidationError struct {
	Issues []schema.Issue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "orchestrator: document failed validation"
	}
	first := e.Issues[0]
	return fmt.Sprintf("orchestrator: document failed validation: %d issue(s), first at %s: %s",
		len(e.Issues), first.Path, first.Message)
}

// Generate executes the loader → validator → parser → normalizer → model
// builder → decorator → renderer sequence and returns the rendered bytes
// alongside the model.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}
	if !o.defaultsApplied {
		o.applyDefaults()
		if err := o.initialiseErr; err != nil {
			return Result{}, err
		}
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return Result{}, err
	}

	validation, err := schema.Validate(doc.Raw(), schema.WithSectionRegistry(o.sections))
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: validate document: %w", err)
	}
	if o.strict && !validation.Valid() {
		return Result{}, &ValidationError{Issues: validation.Errors()}
	}

	c, err := doc.Parse()
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: parse card: %w", err)
	}

	if err := o.applyTransformer(ctx, c); err != nil {
		return Result{}, err
	}

	resolved := sections.Normalize(c,
		sections.WithRegistry(o.sections),
		sections.WithPrioritySort(true))

	buildOpts := []model.Option{}
	if o.columns > 0 {
		buildOpts = append(buildOpts, model.WithColumns(o.columns))
	}
	if palette := c.Metadata["palette"]; palette != "" {
		buildOpts = append(buildOpts, model.WithPalette(palette))
	}
	m, err := model.Build(c, resolved, buildOpts...)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: build card model: %w", err)
	}

	if err := o.applyDecorators(ctx, &m); err != nil {
		return Result{}, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return Result{}, err
	}

	opts := req.Options
	if len(validation.Issues) > 0 {
		opts.Issues = append(opts.Issues, validation.Issues...)
	}
	if opts.Theme == nil {
		cfg, err := o.resolveTheme(req.ThemeName, o.pickVariant(req, opts))
		if err != nil {
			return Result{}, err
		}
		opts.Theme = cfg
		opts.Variant = cfg.Variant
	}
	opts.Meta = render.MergeMetaTags(opts.Meta, render.GeneratorTag(), render.CardTag(m.ID))
	if opts.Variant != "" {
		opts.Meta = render.MergeMetaTags(opts.Meta, render.VariantTag(opts.Variant))
	}

	output, err := renderer.Render(ctx, m, opts)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: render output: %w", err)
	}

	return Result{
		Output:      output,
		ContentType: renderer.ContentType(),
		Model:       m,
		Issues:      validation.Issues,
	}, nil
}

// Close releases resources owned by the orchestrator, currently the default
// URL fetcher's cache and idle connections. Injected dependencies are the
// caller's to close.
func (o *Orchestrator) Close() {
	if o.ownedClient != nil {
		o.ownedClient.Close()
	}
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (card.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return card.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return card.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) pickVariant(req Request, opts render.RenderOptions) string {
	if req.ThemeVariant != "" {
		return req.ThemeVariant
	}
	if opts.Variant != "" {
		return opts.Variant
	}
	return o.themeVariant
}

func (o *Orchestrator) resolveTheme(name, variant string) (*gotheme.RendererConfig, error) {
	if name == "" {
		name = o.themeName
	}

	if o.themeSelector != nil {
		selection, err := o.themeSelector.Select(name, variant)
		if err != nil && variant != "" {
			o.logger.Warn("theme variant unavailable, using base theme",
				zap.String("theme", name),
				zap.String("variant", variant),
				zap.Error(err))
			selection, err = o.themeSelector.Select(name, "")
		}
		if err != nil {
			return nil, fmt.Errorf("orchestrator: select theme %q: %w", name, err)
		}
		cfg, err := theme.Config(selection)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: theme %q: %w", name, err)
		}
		return cfg, nil
	}

	cfg, err := o.themeResolver.Resolve(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return cfg, nil
}

func (o *Orchestrator) applyDecorators(ctx context.Context, m *model.CardModel) error {
	if len(o.decorators) == 0 || m == nil {
		return nil
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := decorator(ctx, m); err != nil {
			return fmt.Errorf("orchestrator: decorate card: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, c *card.Card) error {
	if o.transformer == nil || c == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, c); err != nil {
		return fmt.Errorf("orchestrator: transform card: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.sections == nil {
		o.sections = sections.Default()
	}
	if o.fetcher == nil {
		clientOpts := []httpclient.Option{httpclient.WithLogger(o.logger)}
		if o.httpClient != nil {
			if o.httpClient.Transport != nil {
				clientOpts = append(clientOpts, httpclient.WithBaseTransport(o.httpClient.Transport))
			}
			if o.httpClient.Timeout > 0 {
				clientOpts = append(clientOpts, httpclient.WithTimeout(o.httpClient.Timeout))
			}
		}
		o.ownedClient = httpclient.New(clientOpts...)
		o.fetcher = o.ownedClient
	}
	if o.loader == nil {
		o.loader = internalLoader.New(card.NewLoaderOptions(card.WithFetcher(o.fetcher)))
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
		o.registry.MustRegister(text.New())
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.themeSelector == nil && o.themeResolver == nil {
		o.themeResolver = theme.NewResolver(theme.WithResolverLogger(o.logger))
	}

	o.ensureOverlayDecorator()

	o.defaultsApplied = true
}

func (o *Orchestrator) ensureOverlayDecorator() {
	if o.overlayConfigured {
		return
	}
	o.overlayConfigured = true

	store := o.overlays
	if store == nil {
		fsys := o.overlayFS
		if !o.overlaysSpecified && fsys == nil {
			fsys = overlay.EmbeddedFS()
		}
		if fsys == nil {
			return
		}
		loaded, err := overlay.LoadFS(fsys, "")
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load overlays: %w", err)
			return
		}
		store = loaded
	}
	if store.Empty() {
		return
	}

	decorator := overlay.NewDecorator(store)
	overlayDec := func(_ context.Context, m *model.CardModel) error {
		return decorator.Decorate(m)
	}
	o.decorators = append([]Decorator{overlayDec}, o.decorators...)
}
