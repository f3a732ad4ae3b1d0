package graphql

// AnnotationName is the name used for GraphQL annotations.
const AnnotationName = "graphql"

// Resolver kinds.
const (
	ResolverUnit     = "unit"
	ResolverPipeline = "pipeline"
)

// Annotation carries the declaration settings that cannot be derived from
// Go types alone. Annotations are combined with Merge; later values win for
// scalar settings and lists are appended.
type Annotation struct {
	// Name overrides the GraphQL name of a type, an enum value or an
	// operation.
	Name string

	// Description is rendered as the SDL description.
	Description string

	// Ignore excludes the annotated element from the schema.
	Ignore bool

	// NonNull forces a non-null GraphQL type.
	NonNull bool

	// Nullable marks a reference type as nullable.
	Nullable bool

	// Type overrides the mapped GraphQL type. A trailing "!" makes it
	// non-null.
	Type string

	// Deprecated marks the element deprecated, with an optional reason.
	Deprecated        bool
	DeprecationReason string

	// Directives are directive applications in GraphQL syntax,
	// e.g. `@aws_auth(cognito_groups: ["admin"])`.
	Directives []string

	// Implements lists the interfaces an object implements.
	Implements []string

	// Values lists enum value identifiers for enum types that do not
	// implement `Values() []string`.
	Values []string

	// Args names the parameters of an operation function, in order. Each
	// entry uses the struct tag syntax: "id,type=ID!".
	Args []string

	// Resolver binds an operation to a data source or a pipeline.
	Resolver *Resolver
}

// Resolver is the resolver configuration of an operation.
type Resolver struct {
	Kind            string
	DataSource      string
	Functions       []string
	RequestMapping  string
	ResponseMapping string
}

// AnnotationName returns the name of the annotation.
func (Annotation) AnnotationName() string {
	return AnnotationName
}

// Merge returns a combined annotation of a and other.
func (a Annotation) Merge(other Annotation) Annotation {
	if other.Name != "" {
		a.Name = other.Name
	}
	if other.Description != "" {
		a.Description = other.Description
	}
	a.Ignore = a.Ignore || other.Ignore
	a.NonNull = a.NonNull || other.NonNull
	a.Nullable = a.Nullable || other.Nullable
	if other.Type != "" {
		a.Type = other.Type
	}
	if other.Deprecated {
		a.Deprecated, a.DeprecationReason = true, other.DeprecationReason
	}
	a.Directives = append(a.Directives[:len(a.Directives):len(a.Directives)], other.Directives...)
	a.Implements = append(a.Implements[:len(a.Implements):len(a.Implements)], other.Implements...)
	a.Values = append(a.Values[:len(a.Values):len(a.Values)], other.Values...)
	a.Args = append(a.Args[:len(a.Args):len(a.Args)], other.Args...)
	if other.Resolver != nil {
		a.Resolver = a.Resolver.merge(other.Resolver)
	}
	return a
}

func (r *Resolver) merge(other *Resolver) *Resolver {
	var m Resolver
	if r != nil {
		m = *r
	}
	if other.Kind != "" {
		m.Kind = other.Kind
	}
	if other.DataSource != "" {
		m.DataSource = other.DataSource
	}
	if len(other.Functions) > 0 {
		m.Functions = append([]string(nil), other.Functions...)
	}
	if other.RequestMapping != "" {
		m.RequestMapping = other.RequestMapping
	}
	if other.ResponseMapping != "" {
		m.ResponseMapping = other.ResponseMapping
	}
	return &m
}

// Merge combines annotations in order.
func Merge(anns ...Annotation) Annotation {
	var a Annotation
	for _, o := range anns {
		a = a.Merge(o)
	}
	return a
}

// --- Functional Constructors ---

// Name sets the GraphQL name.
//
// Example:
//
//	src.Query(shop.GetProduct, graphql.Name("getProduct"))
func Name(name string) Annotation {
	return Annotation{Name: name}
}

// Description sets the SDL description.
func Description(text string) Annotation {
	return Annotation{Description: text}
}

// Ignore excludes the element from the schema.
func Ignore() Annotation {
	return Annotation{Ignore: true}
}

// NonNull forces a non-null type.
func NonNull() Annotation {
	return Annotation{NonNull: true}
}

// Nullable marks a reference type as nullable.
func Nullable() Annotation {
	return Annotation{Nullable: true}
}

// Type overrides the mapped GraphQL type.
//
// Example:
//
//	src.Query(shop.Search, graphql.Type("[SearchResult!]!"))
func Type(name string) Annotation {
	return Annotation{Type: name}
}

// Deprecated marks the element deprecated.
//
// Example:
//
//	graphql.Deprecated("Use searchProducts")
func Deprecated(reason string) Annotation {
	return Annotation{Deprecated: true, DeprecationReason: reason}
}

// Directive applies directives given in GraphQL syntax.
//
// Example:
//
//	graphql.Directive(`@aws_auth(cognito_groups: ["admin"])`, "@aws_iam")
func Directive(dirs ...string) Annotation {
	return Annotation{Directives: dirs}
}

// Implements specifies the interfaces an object implements.
//
// Example:
//
//	graphql.Implements("Node", "Timestamped")
//
// This generates:
//
//	type Product implements Node & Timestamped { ... }
func Implements(interfaces ...string) Annotation {
	return Annotation{Implements: interfaces}
}

// Values lists enum value identifiers.
func Values(idents ...string) Annotation {
	return Annotation{Values: idents}
}

// Args names operation parameters in order, using the struct tag syntax.
//
// Example:
//
//	src.Query(shop.ListProducts, graphql.Args("limit,default=20", "after"))
func Args(args ...string) Annotation {
	return Annotation{Args: args}
}

// Unit binds the operation to a single data source.
//
// Example:
//
//	src.Query(shop.GetProduct, graphql.Unit("ProductsLambda"))
func Unit(dataSource string) Annotation {
	return Annotation{Resolver: &Resolver{Kind: ResolverUnit, DataSource: dataSource}}
}

// Pipeline binds the operation to an ordered chain of functions.
//
// Example:
//
//	src.Mutation(shop.PlaceOrder, graphql.Pipeline("validateCart", "chargeCard", "persistOrder"))
func Pipeline(functions ...string) Annotation {
	return Annotation{Resolver: &Resolver{Kind: ResolverPipeline, Functions: functions}}
}

// RequestMapping sets the request mapping template reference.
func RequestMapping(ref string) Annotation {
	return Annotation{Resolver: &Resolver{RequestMapping: ref}}
}

// ResponseMapping sets the response mapping template reference.
func ResponseMapping(ref string) Annotation {
	return Annotation{Resolver: &Resolver{ResponseMapping: ref}}
}
