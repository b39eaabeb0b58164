package main

import (
	"fmt"

	"github.com/basewarphq/cdkflow/cmd/internal/envtable"
	"github.com/basewarphq/cdkflow/cmd/internal/workflowgen"
)

type RoleCmd struct {
	Account  string `arg:"" help:"12-digit AWS account ID."`
	RoleName string `name:"role-name" default:"GitHubActionsServiceRole" help:"Name of the role workflows assume."`
}

func (c *RoleCmd) Run() error {
	if err := envtable.ValidateAccountID(c.Account); err != nil {
		return err
	}
	fmt.Println(workflowgen.DeriveRole(c.Account, c.RoleName))
	return nil
}
