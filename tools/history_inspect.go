// history_inspect dumps the messages stored in a badger database as a table.
// It opens the database read-only and can run next to a live server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"roomchat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	room := flag.String("room", "", "Only dump this room")
	limit := flag.Int("limit", 0, "Maximum rows, 0 for all")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "ID", "Kind", "Sender", "Created", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	prefix := []byte("msg:")
	if *room != "" {
		prefix = []byte(repositories.RoomPrefix(*room))
	}

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if *limit > 0 && rows == *limit {
				break
			}
			item := it.Item()
			err := item.Value(func(v []byte) error {
				message, err := repositories.DecodeMessage(v)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error decoding key %s: %v\n", item.Key(), err)
					return nil
				}
				table.Append([]string{
					message.Room,
					strconv.FormatUint(message.ID, 10),
					message.Kind.String(),
					message.Sender,
					message.CreatedAt.Format("2006-01-02 15:04:05"),
					message.Content,
				})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d message(s)\n", rows)
}
