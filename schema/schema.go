// Package schema supplies property and type metadata for resource
// types. Feature providers consult it for completion and hover; the
// core parser and resolver never do.
package schema

import "sort"

type Property struct {
	Name          string
	Type          string
	Required      bool
	Documentation string
}

type Resource struct {
	Type          string
	Documentation string
	Properties    []Property
}

func (r *Resource) Property(name string) (Property, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Provider is the lookup capability the feature layer depends on.
// Implementations may back it with a remote catalog; the in-process
// one below is static.
type Provider interface {
	Resource(typeName string) (*Resource, bool)
	Types() []string
}

// StaticProvider serves a fixed resource catalog from memory.
type StaticProvider struct {
	resources map[string]*Resource
}

func NewStaticProvider() *StaticProvider {
	p := &StaticProvider{resources: make(map[string]*Resource)}
	for i := range builtins {
		p.Add(&builtins[i])
	}
	return p
}

func (p *StaticProvider) Add(r *Resource) {
	p.resources[r.Type] = r
}

func (p *StaticProvider) Resource(typeName string) (*Resource, bool) {
	r, ok := p.resources[typeName]
	return r, ok
}

func (p *StaticProvider) Types() []string {
	types := make([]string, 0, len(p.resources))
	for t := range p.resources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// builtins covers the resource types exercised by tests and the
// out-of-the-box experience. A catalog-backed provider can replace or
// extend this set.
var builtins = []Resource{
	{
		Type:          "AWS::S3::Bucket",
		Documentation: "An Amazon S3 bucket.",
		Properties: []Property{
			{Name: "BucketName", Type: "String", Documentation: "A name for the bucket."},
			{Name: "AccessControl", Type: "String", Documentation: "A canned access control list."},
			{Name: "VersioningConfiguration", Type: "VersioningConfiguration", Documentation: "Enables multiple versions of objects."},
			{Name: "Tags", Type: "List<Tag>", Documentation: "Tags to attach to the bucket."},
		},
	},
	{
		Type:          "AWS::SNS::Topic",
		Documentation: "An Amazon SNS topic.",
		Properties: []Property{
			{Name: "TopicName", Type: "String", Documentation: "A name for the topic."},
			{Name: "DisplayName", Type: "String", Documentation: "The display name for SMS messages."},
			{Name: "Subscription", Type: "List<Subscription>", Documentation: "The subscriptions for the topic."},
		},
	},
	{
		Type:          "AWS::SQS::Queue",
		Documentation: "An Amazon SQS queue.",
		Properties: []Property{
			{Name: "QueueName", Type: "String", Documentation: "A name for the queue."},
			{Name: "VisibilityTimeout", Type: "Integer", Documentation: "The length of time during which a message is unavailable after delivery."},
			{Name: "FifoQueue", Type: "Boolean", Documentation: "Set to true to create a FIFO queue."},
		},
	},
	{
		Type:          "AWS::EC2::Instance",
		Documentation: "An Amazon EC2 instance.",
		Properties: []Property{
			{Name: "ImageId", Type: "String", Required: true, Documentation: "The AMI id."},
			{Name: "InstanceType", Type: "String", Documentation: "The instance type."},
			{Name: "KeyName", Type: "String", Documentation: "The key pair name."},
			{Name: "SecurityGroupIds", Type: "List<String>", Documentation: "The security group ids."},
		},
	},
	{
		Type:          "AWS::IAM::Role",
		Documentation: "An IAM role.",
		Properties: []Property{
			{Name: "RoleName", Type: "String", Documentation: "A name for the role."},
			{Name: "AssumeRolePolicyDocument", Type: "Json", Required: true, Documentation: "The trust policy."},
			{Name: "Policies", Type: "List<Policy>", Documentation: "Inline policies."},
		},
	},
	{
		Type:          "AWS::DynamoDB::Table",
		Documentation: "A DynamoDB table.",
		Properties: []Property{
			{Name: "TableName", Type: "String", Documentation: "A name for the table."},
			{Name: "KeySchema", Type: "List<KeySchema>", Required: true, Documentation: "The primary key schema."},
			{Name: "AttributeDefinitions", Type: "List<AttributeDefinition>", Documentation: "The attribute definitions."},
			{Name: "BillingMode", Type: "String", Documentation: "PROVISIONED or PAY_PER_REQUEST."},
		},
	},
}
