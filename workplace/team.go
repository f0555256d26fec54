package workplace

import "github.com/deskmesh/deskmesh/worker"

// Team builds the stock workplace hierarchy: a coordinator routing between a
// messaging worker, a meeting scheduler, a mail worker backed by a drafting
// specialist, a documents worker backed by a writing specialist, a
// spreadsheets worker backed by a data-entry specialist, and a calendar
// worker.
func Team() *worker.Worker {
	emailWriter := worker.New("email-writer", func(o *worker.Options) {
		o.Role = "email drafting specialist"
		o.Description = "Drafts clear, professional email bodies"
		o.Instructions = []string{
			"Write concise, professional email copy.",
			"Return the finished draft as plain text; do not send anything yourself.",
		}
		o.HistoryWindow = 3
	})

	writer := worker.New("writer", func(o *worker.Options) {
		o.Role = "long-form writing specialist"
		o.Description = "Produces well-structured document content in markdown"
		o.Instructions = []string{
			"Produce well-organized markdown with headings and lists where helpful.",
			"Return the finished content; do not create documents yourself.",
		}
		o.HistoryWindow = 3
	})

	dataEntry := worker.New("data-entry", func(o *worker.Options) {
		o.Role = "tabular data specialist"
		o.Description = "Normalizes free-form input into clean rows and columns"
		o.Instructions = []string{
			"Convert free-form input into consistent rows with a header row first.",
			"Return the structured rows; do not write to any sheet yourself.",
		}
		o.HistoryWindow = 3
	})

	messaging := worker.New("messaging-worker", func(o *worker.Options) {
		o.Role = "team chat operator"
		o.Description = "Sends and updates messages in team chat"
		o.Instructions = []string{
			"When no channel is given, post to " + DefaultChannel + ".",
			"Confirm what was posted and where.",
		}
		o.Capabilities = append(o.Capabilities, Messaging())
		o.HistoryWindow = 5
	})

	scheduler := worker.New("meeting-scheduler", func(o *worker.Options) {
		o.Role = "meeting coordinator"
		o.Description = "Schedules and cancels online meetings"
		o.Instructions = []string{
			"Always include the join link in your confirmation.",
			"Ask the coordinator for missing start times rather than guessing.",
		}
		o.Capabilities = append(o.Capabilities, Meetings())
		o.HistoryWindow = 5
	})

	mail := worker.New("mail-worker", func(o *worker.Options) {
		o.Role = "email operator"
		o.Description = "Reads the inbox and sends email, delegating drafting"
		o.Instructions = []string{
			"Delegate body drafting to email-writer before sending.",
			"Never send without a recipient, subject and body.",
		}
		o.Capabilities = append(o.Capabilities, Mail())
		o.Children = append(o.Children, emailWriter)
		o.HistoryWindow = 5
	})

	documents := worker.New("documents-worker", func(o *worker.Options) {
		o.Role = "document operator"
		o.Description = "Creates and updates documents, delegating content writing"
		o.Instructions = []string{
			"Delegate content production to writer, then create or update the document.",
		}
		o.Capabilities = append(o.Capabilities, Documents())
		o.Children = append(o.Children, writer)
		o.HistoryWindow = 5
	})

	spreadsheets := worker.New("spreadsheets-worker", func(o *worker.Options) {
		o.Role = "spreadsheet operator"
		o.Description = "Manages spreadsheet data, delegating normalization"
		o.Instructions = []string{
			"Delegate normalization of messy input to data-entry before writing rows.",
		}
		o.Capabilities = append(o.Capabilities, Spreadsheets())
		o.Children = append(o.Children, dataEntry)
		o.HistoryWindow = 5
	})

	calendar := worker.New("calendar-worker", func(o *worker.Options) {
		o.Role = "calendar operator"
		o.Description = "Views and manages calendar events"
		o.Instructions = []string{
			"Check for conflicts with list_events before creating an event.",
		}
		o.Capabilities = append(o.Capabilities, Calendar())
		o.HistoryWindow = 5
	})

	// email-writer is shared: reachable both through mail-worker and
	// directly from the coordinator for pure drafting requests.
	return worker.New("coordinator", func(o *worker.Options) {
		o.Role = "workplace coordinator"
		o.Description = "Routes workplace requests to the right specialist"
		o.Instructions = []string{
			"Route each request to the single most relevant team member.",
			"Answer directly only when no team member is a better fit.",
			"Report the team member's result back faithfully.",
		}
		o.Children = append(o.Children,
			messaging, scheduler, mail, documents, spreadsheets, calendar, emailWriter)
		o.HistoryWindow = 10
	})
}
