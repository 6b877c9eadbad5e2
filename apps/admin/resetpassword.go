package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	adm, err := cli.admSvc.ResetPassword(context.Background(), email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("password reset for %s\n", adm.Email)
	return nil
}
