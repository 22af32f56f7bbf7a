package remotefs

import (
	"os"

	"github.com/gonzalop/remotefs/transport"
)

// Op names the driver step a failure happened in.
type Op string

const (
	OpConnect       Op = "connect"
	OpClose         Op = "close"
	OpLogin         Op = "login"
	OpPassive       Op = "passive"
	OpList          Op = "list"
	OpNameList      Op = "name-list"
	OpCreateFolder  Op = "create-folder"
	OpRemoveFolder  Op = "remove-folder"
	OpChangeFolder  Op = "change-folder"
	OpDeleteFile    Op = "delete-file"
	OpRename        Op = "rename"
	OpChmod         Op = "chmod"
	OpCurrentFolder Op = "current-folder"
	OpSize          Op = "size"
	OpModTime       Op = "mdtm"
	OpGet           Op = "get"
	OpPut           Op = "put"
	OpExec          Op = "exec"
	OpSite          Op = "site"
	OpRaw           Op = "raw"

	// Steps whose failures are never reported to the caller.
	OpSystemType    Op = "system-type"
	OpRestoreFolder Op = "restore-folder"
	OpProbeFolder   Op = "probe-folder"
	OpProbeModTime  Op = "probe-mdtm"
	OpCleanup       Op = "cleanup"
)

// errorContext records what the driver was doing when a transport call
// failed. It is overwritten before every risky call.
type errorContext struct {
	op   Op
	host string
	port int
	user string

	path    string
	newPath string
	mode    os.FileMode

	local        string
	remote       string
	transferMode transport.TransferMode
	async        bool

	command string

	// passive is the mode a failed passive toggle tried to set.
	passive bool
}

// classify turns the failure err of the operation described by ec into one
// typed error. It returns nil for operations it does not know.
func classify(ec errorContext, err error) error {
	switch ec.op {
	case OpConnect:
		return &ConnectionError{Kind: ConnOpen, Host: ec.host, Port: ec.port, Err: err}
	case OpClose:
		return &ConnectionError{Kind: ConnClose, Host: ec.host, Port: ec.port, Err: err}
	case OpPassive:
		kind := ConnPassiveOff
		if ec.passive {
			kind = ConnPassiveOn
		}
		return &ConnectionError{Kind: kind, Host: ec.host, Port: ec.port, Err: err}
	case OpLogin:
		return &AuthenticationError{Host: ec.host, Port: ec.port, User: ec.user, Err: err}
	case OpList, OpNameList:
		return &ListingError{Kind: ListDir, Host: ec.host, Path: ec.path, Err: err}
	case OpCurrentFolder:
		return &ListingError{Kind: CurrentDir, Host: ec.host, Err: err}
	case OpCreateFolder:
		return fsError(CreateFolder, ec, err)
	case OpRemoveFolder:
		return fsError(RemoveFolder, ec, err)
	case OpChangeFolder:
		return fsError(ChangeFolder, ec, err)
	case OpDeleteFile:
		return fsError(DeleteFile, ec, err)
	case OpRename:
		return fsError(RenameFile, ec, err)
	case OpChmod:
		return fsError(ChangeMode, ec, err)
	case OpSize:
		return fsError(SizeQuery, ec, err)
	case OpModTime:
		return fsError(ModTimeQuery, ec, err)
	case OpGet:
		return transferError(Download, ec, err)
	case OpPut:
		return transferError(Upload, ec, err)
	case OpExec:
		return &CommandExecutionError{Kind: CommandExec, Host: ec.host, Command: ec.command, Err: err}
	case OpSite:
		return &CommandExecutionError{Kind: CommandSite, Host: ec.host, Command: ec.command, Err: err}
	case OpRaw:
		return &CommandExecutionError{Kind: CommandRaw, Host: ec.host, Command: ec.command, Err: err}
	default:
		return nil
	}
}

func fsError(kind FileSystemErrorKind, ec errorContext, err error) error {
	return &FileSystemError{
		Kind:    kind,
		Host:    ec.host,
		Path:    ec.path,
		NewPath: ec.newPath,
		Mode:    ec.mode,
		Err:     err,
	}
}

func transferError(dir Direction, ec errorContext, err error) error {
	return &TransferError{
		Direction: dir,
		Host:      ec.host,
		Remote:    ec.remote,
		Local:     ec.local,
		Mode:      ec.transferMode,
		Async:     ec.async,
		Err:       err,
	}
}
