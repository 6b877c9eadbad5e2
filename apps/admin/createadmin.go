package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) createAdmin(email, pwd string) error {
	adm, err := cli.admSvc.Create(context.Background(), email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("admin %s created\n", adm.Email)
	return nil
}
