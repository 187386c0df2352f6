package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/goliatone/go-settings/pkg/activity"
)

// GroupOverride replaces provider-supplied group metadata after Load. Nil
// fields leave the loaded metadata untouched.
type GroupOverride struct {
	Group       string
	DisplayName *string
	Priority    *int
}

// GroupOption configures a GroupOverride.
type GroupOption func(*GroupOverride)

// WithDisplayName overrides the group's display name.
func WithDisplayName(name string) GroupOption {
	return func(o *GroupOverride) {
		o.DisplayName = &name
	}
}

// WithPriority overrides the group's sort priority.
func WithPriority(priority int) GroupOption {
	return func(o *GroupOverride) {
		o.Priority = &priority
	}
}

// Builder accumulates configuration for a Manager. A Builder is not safe for
// concurrent use; errors are collected and returned together by Build.
type Builder struct {
	providers    map[Scope]Provider
	serializers  []Serializer
	enums        []EnumType
	folders      SpecialFolders
	containers   []*Container
	overrides    map[string]GroupOverride
	pathFactory  ProviderFactory
	pathResolver PathResolver
	scopeFactory ScopeProviderFactory
	logger       Logger
	hooks        activity.Hooks
	activityCfg  activity.Config
	identity     activity.Identity
	evaluator    Evaluator
	functions    *FunctionRegistry
	cache        ProgramCache
	errs         []error
}

// NewBuilder starts an empty configuration.
func NewBuilder() *Builder {
	return &Builder{
		providers:   make(map[Scope]Provider),
		overrides:   make(map[string]GroupOverride),
		activityCfg: activity.Config{Enabled: true},
	}
}

// WithProvider registers p as the provider for scope, replacing any earlier
// registration.
func (b *Builder) WithProvider(scope Scope, p Provider) *Builder {
	if !scope.Valid() {
		b.errs = append(b.errs, fmt.Errorf("%w: %d", ErrInvalidScope, scope))
		return b
	}
	if p == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrNilProvider, scope))
		return b
	}
	b.providers[scope] = p
	return b
}

// WithSerializer registers serializers after the built-ins so they shadow
// built-in kinds with the same name.
func (b *Builder) WithSerializer(serializers ...Serializer) *Builder {
	b.serializers = append(b.serializers, serializers...)
	return b
}

// WithEnum makes enum types resolvable from Enum and EnumList tags.
func (b *Builder) WithEnum(types ...EnumType) *Builder {
	b.enums = append(b.enums, types...)
	return b
}

// WithSpecialFolders replaces the token table used by the Folder kind.
func (b *Builder) WithSpecialFolders(folders SpecialFolders) *Builder {
	b.folders = folders
	return b
}

// WithContainer registers containers. Once any container is registered, keys
// without a registration are ignored by Load.
func (b *Builder) WithContainer(containers ...*Container) *Builder {
	b.containers = append(b.containers, containers...)
	return b
}

// WithGroup overrides display metadata for group.
func (b *Builder) WithGroup(group string, opts ...GroupOption) *Builder {
	override := b.overrides[group]
	override.Group = group
	for _, opt := range opts {
		if opt != nil {
			opt(&override)
		}
	}
	b.overrides[group] = override
	return b
}

// WithPathProviderFactory creates providers for referenced scopes that were not
// registered explicitly. resolver synthesizes the path handed to factory.
func (b *Builder) WithPathProviderFactory(factory ProviderFactory, resolver PathResolver) *Builder {
	if factory == nil || resolver == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: path provider factory", ErrNilFactory))
		return b
	}
	b.pathFactory = factory
	b.pathResolver = resolver
	return b
}

// WithScopeProviderFactory creates providers for referenced scopes directly.
// It takes precedence over a path factory.
func (b *Builder) WithScopeProviderFactory(factory ScopeProviderFactory) *Builder {
	if factory == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: scope provider factory", ErrNilFactory))
		return b
	}
	b.scopeFactory = factory
	return b
}

// WithLogger routes manager logging to logger.
func (b *Builder) WithLogger(logger Logger) *Builder {
	b.logger = logger
	return b
}

// WithActivityHooks appends hooks notified about lifecycle events.
func (b *Builder) WithActivityHooks(hooks ...activity.ActivityHook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// WithActivityConfig replaces the emitter configuration.
func (b *Builder) WithActivityConfig(cfg activity.Config) *Builder {
	b.activityCfg = cfg
	return b
}

// WithIdentity attributes emitted events to identity.
func (b *Builder) WithIdentity(identity activity.Identity) *Builder {
	b.identity = identity
	return b
}

// WithEvaluator replaces the default expr evaluator.
func (b *Builder) WithEvaluator(evaluator Evaluator) *Builder {
	b.evaluator = evaluator
	return b
}

// WithFunctionRegistry exposes registry helpers to the default evaluator.
func (b *Builder) WithFunctionRegistry(registry *FunctionRegistry) *Builder {
	b.functions = registry
	return b
}

// WithProgramCache replaces the default evaluator's program cache.
func (b *Builder) WithProgramCache(cache ProgramCache) *Builder {
	b.cache = cache
	return b
}

// Build validates the configuration and returns a Manager. The manager holds
// no collections until Load is called.
func (b *Builder) Build() (*Manager, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = NopLogger()
	}

	folders := b.folders
	if folders == nil {
		folders = DefaultSpecialFolders()
	}
	registry := NewSerializerRegistry()
	if err := registry.Register(BuiltinSerializers(NewEnumRegistry(b.enums...), folders)...); err != nil {
		return nil, err
	}
	if err := registry.Register(b.serializers...); err != nil {
		return nil, err
	}
	registerKnownKinds(registry)

	scopes, err := BuildScopeMap(b.containers...)
	if err != nil {
		return nil, err
	}

	providers := make(map[Scope]Provider, len(b.providers))
	for scope, p := range b.providers {
		providers[scope] = p
	}
	for _, scope := range WritableScopes {
		if providers[scope] != nil || !scopes.Targets(scope) {
			continue
		}
		p, err := b.createProvider(scope)
		if err != nil {
			logger.Warn("settings: provider not created", "scope", scope.String(), "error", err)
			continue
		}
		if p != nil {
			providers[scope] = p
		}
	}

	evaluator := b.evaluator
	if evaluator == nil {
		cache := b.cache
		if cache == nil {
			cache = NewMemoryProgramCache()
		}
		evaluator = NewExprEvaluator(EvaluatorWithProgramCache(cache), EvaluatorWithFunctions(b.functions))
	}

	overrides := make(map[string]GroupOverride, len(b.overrides))
	for group, override := range b.overrides {
		overrides[group] = override
	}

	return &Manager{
		collections: map[string]*Collection{},
		providers:   providers,
		serializers: registry,
		scopes:      scopes,
		overrides:   overrides,
		logger:      logger,
		emitter:     activity.NewEmitter(b.hooks, b.activityCfg),
		identity:    b.identity,
		evaluator:   evaluator,
	}, nil
}

func (b *Builder) createProvider(scope Scope) (Provider, error) {
	if b.scopeFactory != nil {
		return b.scopeFactory(scope)
	}
	if b.pathFactory == nil {
		return nil, nil
	}
	path, err := b.pathResolver(scope)
	if err != nil {
		return nil, err
	}
	return b.pathFactory(path)
}

// DefaultPathResolver places User settings under the user configuration
// directory and Global settings under the machine-wide one, both in an app
// subdirectory holding file.
func DefaultPathResolver(app, file string) PathResolver {
	return func(scope Scope) (string, error) {
		switch scope {
		case ScopeUser:
			dir, err := os.UserConfigDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(dir, app, file), nil
		case ScopeGlobal:
			return filepath.Join(machineConfigDir(), app, file), nil
		default:
			return "", fmt.Errorf("%w: no storage path for %s", ErrInvalidScope, scope)
		}
	}
}

func machineConfigDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("PROGRAMDATA"); dir != "" {
			return dir
		}
		return `C:\ProgramData`
	}
	return "/etc"
}
