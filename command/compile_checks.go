package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[FinishAnalysisMessage]      = (*FinishAnalysisCommand)(nil)
	_ gocmd.Commander[ChangeIssueTypeMessage]     = (*ChangeIssueTypeCommand)(nil)
	_ gocmd.Commander[TransitionIssuesMessage]    = (*TransitionIssuesCommand)(nil)
	_ gocmd.Commander[PurgeDeliveriesMessage]     = (*PurgeDeliveriesCommand)(nil)
	_ gocmd.Commander[BackfillAnalysisIDsMessage] = (*BackfillAnalysisIDsCommand)(nil)
)
