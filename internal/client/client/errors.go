package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scrumlink/internal/common"
)

var (
	// ErrBusy is returned when Connect or ConnectWithRefreshToken is called
	// while another connect attempt is running.
	ErrBusy = fmt.Errorf("%w: connect already in progress", common.ErrPrecondition)

	// ErrDisconnectWhileConnecting is returned by Disconnect during a connect.
	ErrDisconnectWhileConnecting = fmt.Errorf("%w: disconnect while connecting", common.ErrPrecondition)

	// ErrInvalidURI is returned when a caller-supplied resource URI is not a
	// well-formed absolute URL.
	ErrInvalidURI = fmt.Errorf("%w: invalid resource uri", common.ErrPrecondition)

	// ErrAmbiguousLink is returned by the link helpers when a relation occurs
	// more than once in a resource's links.
	ErrAmbiguousLink = errors.New("ambiguous link relation")
)
