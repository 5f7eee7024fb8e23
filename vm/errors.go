package vm

import "fmt"

// HostContractError reports a host function that returned from its
// CallHost dispatch without ever calling CallManager.Return
// (spec.md §4.7: "failure to return is a host contract violation").
type HostContractError struct {
	Group  byte
	FuncID byte
}

func (e HostContractError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: host function (group %d, id %d) never called Return", e.Group, e.FuncID)
}
