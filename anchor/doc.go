// Package anchor is a client for programs built with the anchor framework.
//
// A Program is an explicit handle built from a program id and its interface
// definition (IDL). Remote calls go through a Provider, which owns the cluster
// connection, the paying wallet and the confirmation settings:
//
//	program, err := anchor.NewProgram(idl, programID, provider)
//	sig, err := program.Methods("initialize").RPC(ctx)
//
// Every failure of a remote call is reported as a *RemoteCallError.
package anchor
