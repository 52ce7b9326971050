/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/medlabel/apiserver/config"
	"github.com/medlabel/apiserver/internal/db"
	"github.com/medlabel/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// provisionCmd batch-loads reference data. Users and classes are only
// ever created this way; the HTTP API has no endpoints for them.
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Batch-load users and annotation classes",
}

var provisionUsersFile string

var provisionUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Load users from a CSV file (username,first_name,last_name,password)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		f, err := os.Open(provisionUsersFile)
		if err != nil {
			return err
		}
		defer f.Close()

		userService := services.NewUserService(dbConn)
		reader := csv.NewReader(f)
		records, err := reader.ReadAll()
		if err != nil {
			return fmt.Errorf("parse %s: %w", provisionUsersFile, err)
		}

		for i, record := range records {
			if len(record) != 4 {
				return fmt.Errorf("%s line %d: want 4 fields, got %d", provisionUsersFile, i+1, len(record))
			}
			username := strings.TrimSpace(record[0])
			if err := userService.Create(cmd.Context(), username, record[1], record[2], record[3]); err != nil {
				return fmt.Errorf("create user %q: %w", username, err)
			}
			fmt.Printf("created user %s\n", username)
		}
		return nil
	},
}

var provisionClassesFile string

var provisionClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "Load annotation classes from a file, one name per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		f, err := os.Open(provisionClassesFile)
		if err != nil {
			return err
		}
		defer f.Close()

		classService := services.NewClassService(dbConn)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			name := strings.TrimSpace(scanner.Text())
			if name == "" {
				continue
			}
			id, err := classService.Create(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("create class %q: %w", name, err)
			}
			fmt.Printf("created class %d %s\n", id, name)
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionUsersCmd.Flags().StringVarP(&provisionUsersFile, "file", "f", "users.csv", "CSV file of users to load")
	provisionCmd.AddCommand(provisionUsersCmd)

	provisionClassesCmd.Flags().StringVarP(&provisionClassesFile, "file", "f", "classes.txt", "file of class names to load")
	provisionCmd.AddCommand(provisionClassesCmd)
}
