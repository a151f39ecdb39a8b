package schema

import (
	"regexp"

	"github.com/choreo-dev/choreo-steps/internal/rules"
)

var (
	endpointTypes        = []string{"REST", "GraphQL", "GRPC", "TCP", "UDP", "WS"}
	networkVisibilities  = []string{"Public", "Project", "Organization"}
	basePathTypes        = []string{"REST", "GraphQL", "WS"}
	componentConfigAPI   = []string{string(ComponentConfigV1beta1)}
	componentConfigKinds = []string{"ComponentConfig"}
)

const (
	handle = `[a-zA-Z0-9_-]+`

	thirdPartyMessage = "{path} has an invalid service identifier. " +
		"Use the format thirdparty:<service_name>/<version>, " +
		"allowing only alphanumeric characters, periods (.), underscores (_), hyphens (-), and slashes (/) after thirdparty:."
	databaseMessage = "{path} has an invalid service identifier. " +
		"Use the format database:[<serverName>/]<databaseName> where optional fields are in brackets, " +
		"allowing only alphanumeric characters, underscores (_), hyphens (-), and slashes (/) after database:."
)

var (
	basePathPattern     = regexp.MustCompile(`^/[a-zA-Z0-9/\-_]*$`)
	endpointNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

	choreoRefPattern = regexp.MustCompile(
		`^choreo:///` + handle + `/` + handle + `/` + handle + `/` + handle +
			`/v\d+(\.\d+)?/(PUBLIC|PROJECT|ORGANIZATION)$`)
	thirdPartyRefPattern = regexp.MustCompile(`^thirdparty:([a-zA-Z0-9\s_.-]+)/([vV]\d+(\.\d+)*)$`)
	databaseRefPattern   = regexp.MustCompile(`^database:((` + handle + `)/)?(` + handle + `)$`)
	serviceRefPattern    = regexp.MustCompile(
		`^(service:)?(/(` + handle + `)/)?(` + handle + `)/([vV]\d+(\.\d+)*)(/(` + handle + `))?(/(PUBLIC|PROJECT|ORGANIZATION))?$`)

	// connectionNamePattern bounds length and edge characters; the Not
	// companion rejects two consecutive delimiters after the first letter.
	connectionNamePattern       = regexp.MustCompile(`^\s*[a-zA-Z0-9][a-zA-Z0-9 _\-.]{1,48}[a-zA-Z0-9]\s*$`)
	connectionNameDoubleDelimit = regexp.MustCompile(`^\s*[a-zA-Z0-9].*[^a-zA-Z0-9]{2}`)
)

func str(required bool, checks ...rules.Check) rules.Rule {
	return rules.Rule{Type: rules.String, Required: required, Checks: checks}
}

func obj(required bool, fields ...rules.Field) rules.Rule {
	return rules.Rule{Type: rules.Object, Required: required, Fields: fields}
}

func arr(required bool, items rules.Rule, checks ...rules.Check) rules.Rule {
	return rules.Rule{Type: rules.Array, Required: required, Items: &items, Checks: checks}
}

func field(name string, r rules.Rule) rules.Field {
	return rules.Field{Name: name, Rule: r}
}

func oneOf(values []string) rules.Check {
	return rules.Check{Kind: rules.OneOf, Values: values}
}

func port() rules.Rule {
	return rules.Rule{
		Type:     rules.Number,
		Required: true,
		Checks: []rules.Check{
			{Kind: rules.MoreThan, Limit: 1000},
			{Kind: rules.LessThan, Limit: 65535},
		},
	}
}

func schemaFilePath() rules.Rule {
	return str(false, rules.Check{
		Kind:    rules.FileExists,
		Message: "Schema file does not exist at the given path {value}.",
	})
}

func uniqueNames() rules.Check {
	return rules.Check{Kind: rules.Unique, Key: "name", Message: "Endpoint names must be unique"}
}

// endpointsV0_1 is the flat endpoint list used by endpoints.yaml and the
// component-config inbound section.
func endpointsV0_1(required bool) rules.Rule {
	return arr(required, obj(false,
		field("name", str(true)),
		field("port", port()),
		field("type", str(true, oneOf(endpointTypes))),
		field("networkVisibility", str(false, oneOf(networkVisibilities))),
		field("context", str(false,
			rules.Check{
				Kind:      rules.RequiredWhen,
				Sibling:   "type",
				SiblingIn: basePathTypes,
				Message:   "{path} is required for {sibling}-type endpoints",
			},
			rules.Check{
				Kind:    rules.Pattern,
				Pattern: basePathPattern,
				Message: "{path} must start with a forward slash and can only contain alphanumeric characters, hyphens, and forward slashes.",
			},
		)),
		field("schemaFilePath", schemaFilePath()),
	), uniqueNames())
}

// endpointsV0_2 is the component.yaml endpoint list with a nested service.
func endpointsV0_2() rules.Rule {
	return arr(false, obj(false,
		field("name", str(true,
			rules.Check{Kind: rules.MaxLength, Limit: 50},
			rules.Check{
				Kind:    rules.Pattern,
				Pattern: endpointNamePattern,
				Message: "{path} must start with a lowercase letter and can only contain lowercase letters, numbers, underscores (_), and hyphens (-).",
			},
		)),
		field("displayName", str(false, rules.Check{Kind: rules.MaxLength, Limit: 50})),
		field("service", obj(true,
			field("basePath", str(false, rules.Check{
				Kind:    rules.Pattern,
				Pattern: basePathPattern,
				Message: "{path} must start with a forward slash and can only contain alphanumeric characters, hyphens, underscores and forward slashes.",
			})),
			field("port", port()),
		)),
		field("type", str(true, oneOf(endpointTypes))),
		field("networkVisibilities", arr(false, str(false, oneOf(networkVisibilities)))),
		field("schemaFilePath", schemaFilePath()),
	), uniqueNames())
}

func serviceReferences() rules.Rule {
	return arr(false, obj(false,
		field("name", str(true, rules.Check{
			Kind: rules.Prefixed,
			Alternatives: []rules.Alternative{
				{
					Prefix:  "choreo:///",
					Pattern: choreoRefPattern,
					Message: "{path} has an invalid service identifier. " +
						"Use the format choreo:///<org-handle>/<project-handle>/<component-handle>/<endpoint-identifier>/<major-version>/<network-visibility>",
				},
				{Prefix: "thirdparty:", Pattern: thirdPartyRefPattern, Message: thirdPartyMessage},
				{Prefix: "database:", Pattern: databaseRefPattern, Message: databaseMessage},
			},
			Fallback: &rules.Alternative{
				Message: "{path} has an invalid service identifier. It can only contain choreo, thirdparty, or database types.",
			},
		})),
		field("connectionConfig", str(true, rules.Check{Kind: rules.UUID})),
		field("env", arr(true, obj(false,
			field("from", str(true)),
			field("to", str(true)),
		))),
	))
}

func connectionReferences() rules.Rule {
	return arr(false, obj(false,
		field("name", str(true, rules.Check{
			Kind:    rules.Pattern,
			Pattern: connectionNamePattern,
			Not:     connectionNameDoubleDelimit,
			Message: "{path} can only contain letters, numbers, with non-consecutive delimiters: underscores (_), hyphens (-), dots (.), or spaces.",
		})),
		field("resourceRef", str(true, rules.Check{
			Kind: rules.Prefixed,
			Alternatives: []rules.Alternative{
				{
					Prefix:  "service:",
					Pattern: serviceRefPattern,
					Message: "{path} has an invalid service identifier. " +
						"Use the format [service:][/<project-handle>/]<component-handle>/<major-version>[/<endpoint-handle>][/<network-visibility>] where optional fields are specified in brackets.",
				},
				{Prefix: "thirdparty:", Pattern: thirdPartyRefPattern, Message: thirdPartyMessage},
				{Prefix: "database:", Pattern: databaseRefPattern, Message: databaseMessage},
			},
			Fallback: &rules.Alternative{
				Pattern: serviceRefPattern,
				Message: "{path} has an invalid service identifier. " +
					"For services, use [service:][/<project-handle>/]<component-handle>/<major-version>[/<endpoint-handle>][/<network-visibility>]. " +
					"For databases, use database:[<serverName>/]<databaseName>. " +
					"For third-party services, use thirdparty:<service_name>/<version>. " +
					"Optional fields are specified in brackets.",
			},
		})),
	))
}

func dependenciesV0_1() rules.Rule {
	return obj(false, field("serviceReferences", serviceReferences()))
}

func dependenciesV0_2() rules.Rule {
	return obj(false,
		field("serviceReferences", serviceReferences()),
		field("connectionReferences", connectionReferences()),
	)
}

func componentYAML(dependencies rules.Rule) rules.Rule {
	return obj(true,
		field("schemaVersion", rules.Rule{Type: rules.Number, Required: true}),
		field("endpoints", endpointsV0_2()),
		field("dependencies", dependencies),
		field("configurations", rules.Rule{Type: rules.Object}),
	)
}

func componentConfigYAML() rules.Rule {
	return obj(true,
		field("apiVersion", str(true, oneOf(componentConfigAPI))),
		field("kind", str(true, oneOf(componentConfigKinds))),
		field("spec", obj(false,
			field("inbound", endpointsV0_1(false)),
			field("outbound", dependenciesV0_1()),
		)),
	)
}

func endpointsYAML() rules.Rule {
	return obj(true,
		field("version", str(true)),
		field("endpoints", endpointsV0_1(true)),
	)
}
