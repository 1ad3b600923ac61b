// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package prompt

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/manifoldco/promptui"

	"github.com/ava-labs/guardianwallet/utils"
)

var (
	ErrInputEmpty     = errors.New("input is empty")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrInvalidAddress = errors.New("invalid address")
)

func validateAddress(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return ErrInputEmpty
	}
	if !common.IsHexAddress(input) {
		return ErrInvalidAddress
	}
	return nil
}

func Address(label string) (common.Address, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Validate: validateAddress,
	}
	raw, err := promptText.Run()
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(strings.TrimSpace(raw)), nil
}

func validateAmount(input string) error {
	if len(input) == 0 {
		return ErrInputEmpty
	}
	_, err := utils.ParseAmount(input)
	return err
}

func Amount(label string) (*uint256.Int, error) {
	promptText := promptui.Prompt{
		Label:    label,
		Validate: validateAmount,
	}
	raw, err := promptText.Run()
	if err != nil {
		return nil, err
	}
	return utils.ParseAmount(raw)
}

func validateYesNo(input string) error {
	if len(input) == 0 {
		return ErrInputEmpty
	}
	lower := strings.ToLower(input)
	if lower == "y" || lower == "n" {
		return nil
	}
	return ErrInvalidChoice
}

func Bool(label string) (bool, error) {
	promptText := promptui.Prompt{
		Label:    label + " (y/n)",
		Validate: validateYesNo,
	}
	raw, err := promptText.Run()
	if err != nil {
		return false, err
	}
	return strings.ToLower(raw) == "y", nil
}

func Continue() (bool, error) {
	cont, err := Bool("continue")
	if err != nil {
		return false, err
	}
	if !cont {
		utils.Outf("{{red}}exiting...{{/}}\n")
	}
	return cont, nil
}
