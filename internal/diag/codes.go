package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Resolution errors
	ResInfo                 Code = 1000
	ResUnresolved           Code = 1001
	ResAmbiguous            Code = 1002
	ResInvisibleMember      Code = 1003
	ResReceiverMismatch     Code = 1004
	ResNestedViaInstance    Code = 1005
	ResInnerViaStatic       Code = 1006
	ResUnsupportedInnerCall Code = 1007
	ResErrorDescriptor      Code = 1008
	ResRuntimeError         Code = 1009

	// expectation checks
	ResExpectationMismatch Code = 1100
	ResQueryFailed         Code = 1101

	// Resolution warnings and hints
	ResHint               Code = 2000
	ResUnstableSmartCast  Code = 2001
	ResSynthesized        Code = 2002
	ResSmartCastDispatch  Code = 2003
	ResNonLocalResolution Code = 2004

	// Fixture errors
	FixInfo        Code = 3000
	FixDecode      Code = 3001
	FixUnknownName Code = 3002
	FixDuplicate   Code = 3003
	FixInvalid     Code = 3004

	// I/O
	IOLoadFileError Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	ResInfo:                 "Resolution information",
	ResUnresolved:           "Unresolved reference",
	ResAmbiguous:            "Ambiguous reference",
	ResInvisibleMember:      "Invisible member",
	ResReceiverMismatch:     "Receiver type mismatch",
	ResNestedViaInstance:    "Nested class accessed via instance",
	ResInnerViaStatic:       "Inner class accessed via static reference",
	ResUnsupportedInnerCall: "Inner class constructor called without instance",
	ResErrorDescriptor:      "Resolved to an error declaration",
	ResRuntimeError:         "Candidate fails at run time",
	ResExpectationMismatch:  "Result differs from expectation",
	ResQueryFailed:          "Query could not be run",
	ResHint:                 "Resolution hint",
	ResUnstableSmartCast:    "Unstable smart cast",
	ResSynthesized:          "Synthesized candidate",
	ResSmartCastDispatch:    "Smart cast used for dispatch receiver",
	ResNonLocalResolution:   "Resolved through an outer level",
	FixInfo:                 "Fixture information",
	FixDecode:               "Malformed fixture",
	FixUnknownName:          "Unknown name in fixture",
	FixDuplicate:            "Duplicate name in fixture",
	FixInvalid:              "Invalid fixture entry",
	IOLoadFileError:         "Failed to load file",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 3000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FIX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
