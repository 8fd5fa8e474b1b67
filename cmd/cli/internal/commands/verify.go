package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/wolfeidau/cfauth/internal/credentials"
	"github.com/wolfeidau/cfauth/internal/login"
	"github.com/wolfeidau/cfauth/internal/pki"
)

type VerifyCmd struct {
	Role        string `help:"Role the signature was made for" required:"" env:"CFAUTH_ROLE"`
	Cert        string `help:"Instance certificate file" required:"" env:"CF_INSTANCE_CERT"`
	SigningTime string `help:"Signing time exactly as sent" required:""`
	Signature   string `help:"Base64 URL encoded signature" required:""`

	out io.Writer
}

// Run checks a signature the way Vault does, against the public key of the
// certificate. Clock skew and certificate trust are not checked.
func (v *VerifyCmd) Run(ctx context.Context) error {
	certPEM, err := credentials.NewFile(v.Cert).Fetch(ctx)
	if err != nil {
		return err
	}

	pub, err := pki.PublicKey(certPEM)
	if err != nil {
		return err
	}

	payload := login.CanonicalPayload(v.SigningTime, certPEM, v.Role)
	if err := pki.Verify([]byte(payload), v.Signature, pub); err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout(v.out), "signature valid")
	return err
}
