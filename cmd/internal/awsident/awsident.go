// Package awsident checks which AWS account the current credentials belong to.
package awsident

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/cockroachdb/errors"
)

// CallerIdentityAPI is the part of the STS client used here.
type CallerIdentityAPI interface {
	GetCallerIdentity(
		ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// MismatchError means the credentials point at a different account than the task targets.
type MismatchError struct {
	Want string
	Got  string
	Arn  string
}

func (e *MismatchError) Error() string {
	return "credentials belong to account " + e.Got + " (" + e.Arn + "), task targets " + e.Want
}

type Identity struct {
	client CallerIdentityAPI
}

func New(client CallerIdentityAPI) *Identity {
	return &Identity{client: client}
}

// Load builds an Identity from the default credential chain. Profile may be empty.
func Load(ctx context.Context, region, profile string) (*Identity, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}
	return New(sts.NewFromConfig(cfg)), nil
}

// Account returns the account ID and ARN of the caller.
func (id *Identity) Account(ctx context.Context) (string, string, error) {
	out, err := id.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", "", errors.Wrap(err, "getting caller identity")
	}
	account := aws.ToString(out.Account)
	if account == "" {
		return "", "", errors.New("caller identity has no account")
	}
	return account, aws.ToString(out.Arn), nil
}

// VerifyAccount fails with a *MismatchError when the caller is not in want.
func (id *Identity) VerifyAccount(ctx context.Context, want string) error {
	got, arn, err := id.Account(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return &MismatchError{Want: want, Got: got, Arn: arn}
	}
	return nil
}
