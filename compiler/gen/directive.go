package gen

import (
	"fmt"
	"slices"
	"strings"
)

// Directives known to AppSync without a definition in the document.
const (
	DirectiveDeprecated          = "deprecated"
	DirectiveSpecifiedBy         = "specifiedBy"
	DirectiveAWSAPIKey           = "aws_api_key"
	DirectiveAWSIAM              = "aws_iam"
	DirectiveAWSOIDC             = "aws_oidc"
	DirectiveAWSCognitoUserPools = "aws_cognito_user_pools"
	DirectiveAWSLambda           = "aws_lambda"
	DirectiveAWSAuth             = "aws_auth"
	DirectiveAWSSubscribe        = "aws_subscribe"
	DirectiveAWSPublish          = "aws_publish"
)

var builtinDirectives = map[string]*DirectiveDefinition{
	DirectiveDeprecated: {
		Name:      DirectiveDeprecated,
		Locations: []Location{LocFieldDefinition, LocArgumentDefinition, LocInputFieldDefinition, LocEnumValue},
		Arguments: []*DirectiveArgument{{Name: "reason", Type: ScalarString, DefaultValue: `"No longer supported"`}},
	},
	DirectiveSpecifiedBy: {
		Name:      DirectiveSpecifiedBy,
		Locations: []Location{LocScalar},
		Arguments: []*DirectiveArgument{{Name: "url", Type: ScalarString, Required: true}},
	},
	DirectiveAWSAPIKey:           awsAuthDirective(DirectiveAWSAPIKey, ""),
	DirectiveAWSIAM:              awsAuthDirective(DirectiveAWSIAM, ""),
	DirectiveAWSOIDC:             awsAuthDirective(DirectiveAWSOIDC, ""),
	DirectiveAWSLambda:           awsAuthDirective(DirectiveAWSLambda, ""),
	DirectiveAWSCognitoUserPools: awsAuthDirective(DirectiveAWSCognitoUserPools, "cognito_groups"),
	DirectiveAWSAuth: {
		Name:       DirectiveAWSAuth,
		Locations:  []Location{LocFieldDefinition},
		Arguments:  []*DirectiveArgument{{Name: "cognito_groups", Type: "[String]"}},
		Repeatable: true,
	},
	DirectiveAWSSubscribe: {
		Name:       DirectiveAWSSubscribe,
		Locations:  []Location{LocFieldDefinition},
		Arguments:  []*DirectiveArgument{{Name: "mutations", Type: "[String]"}},
		Repeatable: true,
	},
	DirectiveAWSPublish: {
		Name:       DirectiveAWSPublish,
		Locations:  []Location{LocFieldDefinition},
		Arguments:  []*DirectiveArgument{{Name: "subscriptions", Type: "[String]"}},
		Repeatable: true,
	},
}

func awsAuthDirective(name, groups string) *DirectiveDefinition {
	d := &DirectiveDefinition{
		Name:       name,
		Locations:  []Location{LocObject, LocFieldDefinition},
		Repeatable: true,
	}
	if groups != "" {
		d.Arguments = []*DirectiveArgument{{Name: groups, Type: "[String]"}}
	}
	return d
}

// AWSDirectives returns the definitions of the directives AppSync provides,
// sorted by name. Standard GraphQL directives are not included.
func AWSDirectives() []*DirectiveDefinition {
	var defs []*DirectiveDefinition
	for name, d := range builtinDirectives {
		if name == DirectiveDeprecated || name == DirectiveSpecifiedBy {
			continue
		}
		defs = append(defs, d)
	}
	slices.SortFunc(defs, func(a, b *DirectiveDefinition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return defs
}

// IsBuiltinDirective reports whether name is a standard or AppSync
// directive.
func IsBuiltinDirective(name string) bool {
	return builtinDirectives[name] != nil
}

// checkDirectives validates every directive application against its
// definition.
func (b *builder) checkDirectives() error {
	for _, t := range b.schema.Types {
		if err := b.checkApplied(t.Name, LocationOf(t.Kind), t.Directives); err != nil {
			return err
		}
		loc := LocFieldDefinition
		if t.Kind == KindInput {
			loc = LocInputFieldDefinition
		}
		for _, f := range t.Fields {
			if err := b.checkField(t.Name+"."+f.Name, loc, f); err != nil {
				return err
			}
		}
		for _, v := range t.EnumValues {
			if err := b.checkApplied(t.Name+"."+v.Name, LocEnumValue, v.Directives); err != nil {
				return err
			}
		}
	}
	for _, op := range b.schema.Operations {
		target := op.Root.TypeName() + "." + op.Name
		if err := b.checkApplied(target, LocFieldDefinition, op.Directives); err != nil {
			return err
		}
		for _, d := range op.Directives {
			if d.Name == DirectiveAWSSubscribe && op.Root != RootSubscription {
				return &InvalidDirectiveUsageError{Directive: d.Name, Location: string(LocFieldDefinition), Target: target, Message: "only subscriptions can subscribe to mutations"}
			}
		}
		for _, a := range op.Arguments {
			if err := b.checkApplied(target+"."+a.Name, LocArgumentDefinition, a.Directives); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) checkField(target string, loc Location, f *FieldEntry) error {
	if err := b.checkApplied(target, loc, f.Directives); err != nil {
		return err
	}
	for _, a := range f.Arguments {
		if err := b.checkApplied(target+"."+a.Name, LocArgumentDefinition, a.Directives); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) checkApplied(target string, loc Location, dirs []*AppliedDirective) error {
	applied := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		def := b.schema.Directive(d.Name)
		if def == nil {
			def = builtinDirectives[d.Name]
		}
		if def == nil {
			return &MissingReferenceError{Name: "@" + d.Name, Referrer: target, Role: "directive"}
		}
		usageErr := func(msg string) error {
			return &InvalidDirectiveUsageError{Directive: d.Name, Location: string(loc), Target: target, Message: msg}
		}
		if !slices.Contains(def.Locations, loc) {
			return usageErr("location not allowed by the directive definition")
		}
		if applied[d.Name] && !def.Repeatable {
			declared := b.schema.Directive(d.Name)
			if declared == nil {
				return usageErr("directive is not repeatable")
			}
			// Repeated applications are kept in order; the emitted
			// definition must allow them.
			declared.Repeatable = true
		}
		applied[d.Name] = true
		given := make(map[string]bool, len(d.Arguments))
		for _, a := range d.Arguments {
			if given[a.Name] {
				return usageErr(fmt.Sprintf("argument %q given twice", a.Name))
			}
			given[a.Name] = true
			if !slices.ContainsFunc(def.Arguments, func(da *DirectiveArgument) bool { return da.Name == a.Name }) {
				return usageErr(fmt.Sprintf("unknown argument %q", a.Name))
			}
		}
		for _, da := range def.Arguments {
			if da.Required && da.DefaultValue == "" && !given[da.Name] {
				return usageErr(fmt.Sprintf("missing required argument %q", da.Name))
			}
		}
	}
	return nil
}
